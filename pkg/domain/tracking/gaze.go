// 指示: miu200521358
// Package tracking は顔ランドマークから視点位置と瞬き量を求める。
package tracking

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// 顔ランドマークのインデックス(MediaPipe FaceMesh準拠)。
const (
	LandmarkNoseTip          = 1
	LandmarkLeftEyeOuter     = 33
	LandmarkLeftEyeInner     = 133
	LandmarkLeftEyeLower     = 145
	LandmarkLeftEyeUpper     = 159
	LandmarkRightEyeInner    = 362
	LandmarkRightEyeOuter    = 263
	LandmarkRightEyeLower    = 374
	LandmarkRightEyeUpper    = 386
	minimumLandmarkCount     = LandmarkLeftEyeUpper + 1
	minimumBothEyesLandmarks = LandmarkRightEyeUpper + 1
)

// Landmark は正規化座標([0,1])の顔ランドマーク。
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Face は1つの顔のランドマーク列。
type Face []Landmark

// FaceFrame はカメラ1フレーム分の検出結果。顔が無い場合は Faces が空。
type FaceFrame struct {
	Faces []Face `json:"faces"`
}

// FirstFace は先頭の顔を返す。
func (f FaceFrame) FirstFace() (Face, bool) {
	if len(f.Faces) == 0 || len(f.Faces[0]) < minimumLandmarkCount {
		return nil, false
	}
	return f.Faces[0], true
}

// GazeConfig は視点算出の定数群。
type GazeConfig struct {
	MonitorWidth    float64 `json:"monitor_width"`
	SensitivityX    float64 `json:"sensitivity_x"`
	SensitivityY    float64 `json:"sensitivity_y"`
	HeightOffset    float64 `json:"height_offset"`
	EyeDepth        float64 `json:"eye_depth"`
	DefaultEyeZ     float64 `json:"default_eye_z"`
	Smoothing       float64 `json:"smoothing"`
	BlinkThreshold  float64 `json:"blink_threshold"`
	IndependentEyes bool    `json:"independent_eyes"`
	ViewportWidth   float64 `json:"-"`
	ViewportHeight  float64 `json:"-"`
}

// DefaultGazeConfig は既定値を返す。
func DefaultGazeConfig() GazeConfig {
	return GazeConfig{
		MonitorWidth:   0.5,
		SensitivityX:   8.0,
		SensitivityY:   6.0,
		HeightOffset:   0.8,
		EyeDepth:       1.2,
		DefaultEyeZ:    0.8,
		Smoothing:      0.1,
		BlinkThreshold: 0.08,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

// aspectHeight はビューポート縦横比で補正したモニタ高さを返す。
func (c GazeConfig) aspectHeight() float64 {
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return c.MonitorWidth
	}
	return c.MonitorWidth / c.ViewportWidth * c.ViewportHeight
}

// GazeState は平滑化された視点位置。置き換えず補間で更新する。
type GazeState struct {
	Position r3.Vec
}

// NewGazeState は初期視点で状態を生成する。
func NewGazeState(config GazeConfig) *GazeState {
	return &GazeState{Position: r3.Vec{X: 0, Y: 0, Z: config.DefaultEyeZ}}
}

// LerpTo は現在位置を目標へ alpha だけ近付ける。
func (s *GazeState) LerpTo(target r3.Vec, alpha float64) {
	s.Position = r3.Add(s.Position, r3.Scale(alpha, r3.Sub(target, s.Position)))
}

// BlinkWeights は左右の瞬き量。
type BlinkWeights struct {
	Left  float64
	Right float64
}

// GazeMapper は顔ランドマークから視点と瞬きを求める。
type GazeMapper struct {
	config GazeConfig
}

// NewGazeMapper はマッパーを生成する。
func NewGazeMapper(config GazeConfig) *GazeMapper {
	return &GazeMapper{config: config}
}

// Config は設定を返す。
func (m *GazeMapper) Config() GazeConfig {
	return m.config
}

// SetViewport はビューポートサイズを更新する。
func (m *GazeMapper) SetViewport(width, height float64) {
	m.config.ViewportWidth = width
	m.config.ViewportHeight = height
}

// TargetPosition は鼻先ランドマークから視点目標を求める。
func (m *GazeMapper) TargetPosition(face Face) r3.Vec {
	nose := face[LandmarkNoseTip]
	return r3.Vec{
		X: (nose.X - 0.5) * m.config.MonitorWidth * m.config.SensitivityX,
		Y: -(nose.Y-0.5)*m.config.aspectHeight()*m.config.SensitivityY + m.config.HeightOffset,
		Z: m.config.EyeDepth,
	}
}

// UpdateGaze は視点状態を目標へ平滑化して近付ける。
func (m *GazeMapper) UpdateGaze(state *GazeState, face Face) {
	state.LerpTo(m.TargetPosition(face), m.config.Smoothing)
}

// Blink は左右の瞬き量を求める。既定では左目の判定を両目に使う。
func (m *GazeMapper) Blink(face Face) BlinkWeights {
	left := BlinkFromRatio(EyeOpenRatio(face[LandmarkLeftEyeUpper], face[LandmarkLeftEyeLower], face[LandmarkLeftEyeOuter], face[LandmarkLeftEyeInner]), m.config.BlinkThreshold)
	right := left
	if m.config.IndependentEyes && len(face) >= minimumBothEyesLandmarks {
		right = BlinkFromRatio(EyeOpenRatio(face[LandmarkRightEyeUpper], face[LandmarkRightEyeLower], face[LandmarkRightEyeOuter], face[LandmarkRightEyeInner]), m.config.BlinkThreshold)
	}
	return BlinkWeights{Left: left, Right: right}
}

// EyeOpenRatio はまぶたの縦幅を目尻目頭の横幅で割った比を返す。
func EyeOpenRatio(upper, lower, outer, inner Landmark) float64 {
	return (upper.Y - lower.Y) / (outer.X - inner.X)
}

// BlinkFromRatio は比の絶対値が閾値未満なら閉(1.0)、それ以外は開(0.0)を返す。
// 閾値ちょうどは開とする。非有限値も開とする。
func BlinkFromRatio(ratio float64, threshold float64) float64 {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0.0
	}
	if math.Abs(ratio) < threshold {
		return 1.0
	}
	return 0.0
}
