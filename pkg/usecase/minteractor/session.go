// 指示: miu200521358
package minteractor

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
)

// Session は表示ループのアプリケーション状態。
// 描画コールバックと顔検出コールバックは同じgoroutineから呼ぶこと。
type Session struct {
	scene   SceneConfig
	options RetargetOptions
	mapper  *tracking.GazeMapper
	gaze    *tracking.GazeState
	blink   tracking.BlinkWeights

	avatar      *avatar.Avatar
	sourceClip  *motion.Clip
	player      *AnimationPlayer
	lastReport  RetargetReport
	pose        Pose
	camera      Camera
	avatarRoot  mgl64.Mat4
	expressions map[string]float64
	lastError   error
}

// NewSession はセッションを生成する。
func NewSession(scene SceneConfig, gaze tracking.GazeConfig, options RetargetOptions) *Session {
	s := &Session{
		scene:       scene,
		options:     options,
		mapper:      tracking.NewGazeMapper(gaze),
		gaze:        tracking.NewGazeState(gaze),
		pose:        NewPose(),
		expressions: map[string]float64{},
	}
	s.updateCamera()
	s.updateAvatarRoot()
	return s
}

// SetViewport はビューポートサイズを更新する。
func (s *Session) SetViewport(width, height float64) {
	s.mapper.SetViewport(width, height)
}

// InstallAvatar は既存アバターを破棄して新しいアバターを設定する。
// モーションが設定済みであればリターゲットして再生を開始する。
func (s *Session) InstallAvatar(model *avatar.Avatar) {
	s.Teardown()
	s.avatar = model
	if model == nil {
		return
	}
	logRetargetInfo("アバター設定: name=%s nodes=%d", model.Name, len(model.Nodes))
	s.rebuildPlayer()
}

// InstallMotion は元モーションを設定する。アバター設定済みであれば再生を差し替える。
func (s *Session) InstallMotion(clip *motion.Clip) {
	s.sourceClip = clip
	if s.avatar == nil {
		return
	}
	if s.player != nil {
		s.player.Stop()
		s.player = nil
	}
	// 新しいクリップが作れない場合でも前クリップの最終姿勢を残さない。
	s.pose = NewPose()
	s.rebuildPlayer()
}

// rebuildPlayer は元モーションをアバターへリターゲットしてプレイヤーを作る。
func (s *Session) rebuildPlayer() {
	if s.avatar == nil || s.sourceClip == nil {
		return
	}
	clip, report, err := RetargetClip(s.sourceClip, s.avatar, s.options)
	s.lastReport = report
	if err != nil {
		s.ReportError(err)
		return
	}
	if clip == nil {
		return
	}
	s.player = NewAnimationPlayer(clip)
}

// Teardown は再生を停止してアバター参照を外す。
func (s *Session) Teardown() {
	if s.player != nil {
		s.player.Stop()
	}
	s.player = nil
	s.avatar = nil
	s.pose = NewPose()
	s.expressions = map[string]float64{}
}

// ReportError は表示用の最新エラーを記録する。
func (s *Session) ReportError(err error) {
	if err == nil {
		return
	}
	s.lastError = err
	logRetargetError("%v", err)
}

// LastError は最新エラーを返す。
func (s *Session) LastError() error {
	return s.lastError
}

// ClearError は最新エラーを消す。
func (s *Session) ClearError() {
	s.lastError = nil
}

// Advance は描画フレーム毎の更新を行う。
func (s *Session) Advance(dt float64) {
	s.updateCamera()
	s.updateAvatarRoot()
	if s.player == nil {
		return
	}
	s.pose = s.player.Advance(dt)
}

// OnFaceResults は顔検出結果を反映する。顔が無いフレームでは何もしない。
func (s *Session) OnFaceResults(frame tracking.FaceFrame) {
	face, ok := frame.FirstFace()
	if !ok {
		return
	}
	s.mapper.UpdateGaze(s.gaze, face)
	s.blink = s.mapper.Blink(face)
	if s.avatar == nil {
		return
	}
	s.applyExpression(avatar.EXPRESSION_BLINK_LEFT, s.blink.Left)
	s.applyExpression(avatar.EXPRESSION_BLINK_RIGHT, s.blink.Right)
}

// applyExpression はアバターの表情名へ重みを設定する。
func (s *Session) applyExpression(preset avatar.ExpressionPreset, weight float64) {
	name, ok := s.avatar.ExpressionName(preset)
	if !ok {
		return
	}
	s.expressions[name] = weight
}

// updateCamera は視点位置へカメラを移動し注視点へ向ける。
func (s *Session) updateCamera() {
	s.camera = Camera{
		Eye:        s.gaze.Position,
		Target:     r3.Vec{X: 0, Y: 0, Z: s.scene.ProjectionDistance},
		FovDegrees: s.scene.FovDegrees,
		Near:       s.scene.Near,
		Far:        s.scene.Far,
	}
}

// updateAvatarRoot は視点の横位置に応じてアバターを回す。
func (s *Session) updateAvatarRoot() {
	yaw := math.Pi + s.gaze.Position.X*s.scene.AvatarYawGain
	s.avatarRoot = mgl64.Translate3D(0, s.scene.FloorHeight, s.scene.ProjectionDistance).
		Mul4(mgl64.HomogRotate3DY(yaw))
}

// Camera は現在のカメラを返す。
func (s *Session) Camera() Camera {
	return s.camera
}

// AvatarRoot はアバターのルート変換を返す。
func (s *Session) AvatarRoot() mgl64.Mat4 {
	return s.avatarRoot
}

// Avatar は設定中のアバターを返す。
func (s *Session) Avatar() *avatar.Avatar {
	return s.avatar
}

// Player は再生中のプレイヤーを返す。未設定時は nil。
func (s *Session) Player() *AnimationPlayer {
	return s.player
}

// Pose は最新のポーズを返す。
func (s *Session) Pose() Pose {
	return s.pose
}

// Gaze は平滑化済みの視点位置を返す。
func (s *Session) Gaze() r3.Vec {
	return s.gaze.Position
}

// Blink は最新の瞬き量を返す。
func (s *Session) Blink() tracking.BlinkWeights {
	return s.blink
}

// AppliedExpression はアバターへ適用中の表情重み。
type AppliedExpression struct {
	Name   string
	Weight float64
}

// AppliedExpressions は適用中の表情重みを名前順で返す。
func (s *Session) AppliedExpressions() []AppliedExpression {
	applied := make([]AppliedExpression, 0, len(s.expressions))
	for name, weight := range s.expressions {
		applied = append(applied, AppliedExpression{Name: name, Weight: weight})
	}
	sort.Slice(applied, func(i, j int) bool { return applied[i].Name < applied[j].Name })
	return applied
}

// ExpressionWeight は表情名の現在の重みを返す。
func (s *Session) ExpressionWeight(name string) (float64, bool) {
	weight, ok := s.expressions[name]
	return weight, ok
}

// LastReport は直近のリターゲット集計を返す。
func (s *Session) LastReport() RetargetReport {
	return s.lastReport
}

// WorldPositions はアバターの現在ポーズのワールド位置を返す。
func (s *Session) WorldPositions() []r3.Vec {
	return SolveWorldPositions(s.avatar, s.pose, s.avatarRoot)
}

// BoneSegments は現在ポーズのヒューマノイドボーンをスクリーン上の線分で返す。
func (s *Session) BoneSegments(width, height float64) []Segment {
	if s.avatar == nil || width <= 0 || height <= 0 {
		return nil
	}
	positions := s.WorldPositions()
	vp := s.camera.ViewProjection(width / height)
	segments := []Segment{}
	for child, parent := range BoneParents(s.avatar) {
		if segment, ok := projectSegment(vp, positions[parent], positions[child], width, height); ok {
			segments = append(segments, segment)
		}
	}
	return segments
}

// FloorSegments はアバター足元の床グリッドを線分で返す。
func (s *Session) FloorSegments(width, height float64) []Segment {
	if width <= 0 || height <= 0 {
		return nil
	}
	vp := s.camera.ViewProjection(width / height)
	y := s.scene.FloorHeight
	z := s.scene.ProjectionDistance
	segments := []Segment{}
	for k := -floorHalfExtent; k <= floorHalfExtent; k++ {
		lines := [][2]r3.Vec{
			{{X: -floorHalfExtent, Y: y, Z: z + k}, {X: floorHalfExtent, Y: y, Z: z + k}},
			{{X: k, Y: y, Z: z - floorHalfExtent}, {X: k, Y: y, Z: z + floorHalfExtent}},
		}
		for _, line := range lines {
			if segment, ok := projectSegment(vp, line[0], line[1], width, height); ok {
				segments = append(segments, segment)
			}
		}
	}
	return segments
}
