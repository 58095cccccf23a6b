// 指示: miu200521358
// Package motion はアニメーションクリップとトラックを表す。
package motion

import (
	"fmt"
	"strings"
)

// TrackProperty はトラックが対象とするプロパティを表す。
type TrackProperty string

const (
	// TRACK_PROPERTY_POSITION は位置トラック。
	TRACK_PROPERTY_POSITION TrackProperty = "position"
	// TRACK_PROPERTY_QUATERNION は回転(クォータニオン)トラック。
	TRACK_PROPERTY_QUATERNION TrackProperty = "quaternion"
	// TRACK_PROPERTY_SCALE は拡縮トラック。リターゲット対象外。
	TRACK_PROPERTY_SCALE TrackProperty = "scale"
)

// Stride は1サンプルあたりの要素数を返す。未対応プロパティは0。
func (p TrackProperty) Stride() int {
	switch p {
	case TRACK_PROPERTY_POSITION, TRACK_PROPERTY_SCALE:
		return 3
	case TRACK_PROPERTY_QUATERNION:
		return 4
	default:
		return 0
	}
}

// IsRetargetable は位置/回転のどちらかであるかを返す。
func (p TrackProperty) IsRetargetable() bool {
	return p == TRACK_PROPERTY_POSITION || p == TRACK_PROPERTY_QUATERNION
}

// Track は1ボーン1プロパティ分のキー列を表す。
// Values はサンプル毎に Stride 個の値を並べたフラット配列。
type Track struct {
	Name     string        `json:"name"`
	Property TrackProperty `json:"-"`
	Times    []float64     `json:"times"`
	Values   []float64     `json:"values"`
}

// NewTrack はトラック名からプロパティを判定してトラックを生成する。
func NewTrack(name string, times []float64, values []float64) *Track {
	_, prop := SplitTrackName(name)
	return &Track{
		Name:     name,
		Property: TrackProperty(prop),
		Times:    times,
		Values:   values,
	}
}

// SampleCount はサンプル数を返す。
func (t *Track) SampleCount() int {
	if t == nil {
		return 0
	}
	stride := t.Property.Stride()
	if stride == 0 {
		return 0
	}
	return len(t.Values) / stride
}

// Clip は名前付きのアニメーションクリップ。生成後は変更しない。
type Clip struct {
	Name     string   `json:"name"`
	Duration float64  `json:"duration"`
	Tracks   []*Track `json:"tracks"`
}

// NewClip はクリップを生成する。
func NewClip(name string, duration float64, tracks []*Track) *Clip {
	return &Clip{Name: name, Duration: duration, Tracks: tracks}
}

// Validate はクリップの整合性を検証する。
func (c *Clip) Validate() error {
	if c == nil {
		return fmt.Errorf("クリップが未設定です")
	}
	if c.Duration < 0 {
		return fmt.Errorf("クリップ長が負です: %f", c.Duration)
	}
	for i, track := range c.Tracks {
		if track == nil {
			return fmt.Errorf("トラックが未設定です: index=%d", i)
		}
		stride := track.Property.Stride()
		if stride > 0 && len(track.Values)%stride != 0 {
			return fmt.Errorf("トラック値の要素数が不正です: name=%s values=%d stride=%d", track.Name, len(track.Values), stride)
		}
		if len(track.Times) > 0 && stride > 0 && len(track.Times) != len(track.Values)/stride {
			return fmt.Errorf("トラック時刻数が不正です: name=%s times=%d samples=%d", track.Name, len(track.Times), len(track.Values)/stride)
		}
	}
	return nil
}

// SplitTrackName はトラック名を骨トークンとプロパティへ分割する。
// 骨トークンは最初の "." より前、プロパティは最後の "." より後。
func SplitTrackName(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ""
	}
	bone := trimmed
	if idx := strings.Index(trimmed, "."); idx >= 0 {
		bone = trimmed[:idx]
	}
	prop := ""
	if idx := strings.LastIndex(trimmed, "."); idx >= 0 {
		prop = trimmed[idx+1:]
	}
	return bone, prop
}

// TrackNodeName はトラック名からノード名を返す。JoinTrackName の逆で、最後の "." より前。
// ノード名自体が "." を含む場合 (Hips.001 など) もそのまま残る。
func TrackNodeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if idx := strings.LastIndex(trimmed, "."); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}

// JoinTrackName はノード名とプロパティからトラック名を組み立てる。
func JoinTrackName(nodeName string, prop TrackProperty) string {
	return nodeName + "." + string(prop)
}
