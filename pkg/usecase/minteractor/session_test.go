// 指示: miu200521358
package minteractor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
)

// newClosedEyeFrame は鼻先位置と閉眼状態を持つ顔フレームを生成する。
func newClosedEyeFrame(noseX, noseY float64) tracking.FaceFrame {
	face := make(tracking.Face, 478)
	face[tracking.LandmarkNoseTip] = tracking.Landmark{X: noseX, Y: noseY}
	face[tracking.LandmarkLeftEyeOuter] = tracking.Landmark{X: 0.6}
	face[tracking.LandmarkLeftEyeInner] = tracking.Landmark{X: 0.5}
	face[tracking.LandmarkLeftEyeUpper] = tracking.Landmark{Y: 0.4}
	face[tracking.LandmarkLeftEyeLower] = tracking.Landmark{Y: 0.4}
	return tracking.FaceFrame{Faces: []tracking.Face{face}}
}

func newTestSession() *Session {
	return NewSession(DefaultSceneConfig(), tracking.DefaultGazeConfig(), DefaultRetargetOptions())
}

func TestSessionAdvanceWithoutAvatar(t *testing.T) {
	session := newTestSession()
	session.Advance(1.0 / 60.0)

	camera := session.Camera()
	assert.Equal(t, 0.8, camera.Eye.Z)
	assert.Equal(t, -8.0, camera.Target.Z)
	assert.Nil(t, session.Player())
	assert.Empty(t, session.WorldPositions())
}

func TestSessionFaceWithoutFaceKeepsState(t *testing.T) {
	session := newTestSession()
	before := session.Gaze()

	session.OnFaceResults(tracking.FaceFrame{})

	assert.Equal(t, before, session.Gaze())
	assert.Equal(t, tracking.BlinkWeights{}, session.Blink())
}

func TestSessionFaceMovesGazeAndCamera(t *testing.T) {
	session := newTestSession()

	session.OnFaceResults(newClosedEyeFrame(0.75, 0.5))
	session.Advance(0)

	gaze := session.Gaze()
	// 1回の更新で目標の10%だけ近付く。
	assert.InDelta(t, 0.1*(0.25*0.5*8.0), gaze.X, 1e-12)
	assert.Equal(t, gaze, session.Camera().Eye)
	assert.Equal(t, 1.0, session.Blink().Left)
	assert.Equal(t, 1.0, session.Blink().Right)

	// アバター未設定では表情へ反映しない。
	_, ok := session.ExpressionWeight("blinkLeft")
	assert.False(t, ok)
}

func TestSessionAppliesBlinkToAvatarExpressions(t *testing.T) {
	session := newTestSession()
	session.InstallAvatar(newTestAvatar())

	session.OnFaceResults(newClosedEyeFrame(0.5, 0.5))

	weight, ok := session.ExpressionWeight("blinkLeft")
	require.True(t, ok)
	assert.Equal(t, 1.0, weight)
	weight, ok = session.ExpressionWeight("blinkRight")
	require.True(t, ok)
	assert.Equal(t, 1.0, weight)

	assert.Equal(t, []AppliedExpression{
		{Name: "blinkLeft", Weight: 1.0},
		{Name: "blinkRight", Weight: 1.0},
	}, session.AppliedExpressions())
}

func TestSessionInstallEmptyMotionReturnsToRest(t *testing.T) {
	session := newTestSession()
	session.InstallAvatar(newTestAvatar())
	session.InstallMotion(newScenarioClip())
	session.Advance(1.0)
	require.Contains(t, session.Pose().Positions, "J_Bip_C_Hips")

	session.InstallMotion(motion.NewClip("none", 1.0, []*motion.Track{
		motion.NewTrack("UnknownBone.quaternion", []float64{0}, []float64{0, 0, 0, 1}),
	}))
	session.Advance(1.0)

	assert.Nil(t, session.Player())
	assert.Empty(t, session.Pose().Positions)
	assert.Empty(t, session.Pose().Rotations)
	rest := SolveWorldPositions(session.Avatar(), NewPose(), session.AvatarRoot())
	assert.Equal(t, rest, session.WorldPositions())
}

func TestSessionInstallMotionStartsPlayback(t *testing.T) {
	session := newTestSession()
	session.InstallMotion(newScenarioClip())
	assert.Nil(t, session.Player(), "player needs an avatar")

	session.InstallAvatar(newTestAvatar())
	require.NotNil(t, session.Player())
	assert.Equal(t, 2, session.LastReport().Retargeted)

	session.Advance(1.0)
	pose := session.Pose()
	hips, ok := pose.Positions["J_Bip_C_Hips"]
	require.True(t, ok)
	assert.InDelta(t, 0.25, hips.X, 1e-9)

	positions := session.WorldPositions()
	require.Len(t, positions, 4)
	assert.InDelta(t, -8.0, positions[0].Z, 1e-9)
}

func TestSessionAvatarYawFollowsGaze(t *testing.T) {
	session := newTestSession()
	session.Advance(0)
	root := session.AvatarRoot()
	// 初期視点 x=0 では π 回転。
	assert.InDelta(t, math.Cos(math.Pi), root.At(0, 0), 1e-12)
	assert.InDelta(t, -0.8, root.At(1, 3), 1e-12)
	assert.InDelta(t, -8.0, root.At(2, 3), 1e-12)
}

func TestSessionTeardownOnAvatarSwap(t *testing.T) {
	session := newTestSession()
	session.InstallMotion(newScenarioClip())
	session.InstallAvatar(newTestAvatar())
	first := session.Player()
	require.NotNil(t, first)

	session.InstallAvatar(newTestAvatar())
	assert.False(t, first.IsPlaying(), "previous player should be stopped")
	require.NotNil(t, session.Player())
	assert.NotSame(t, first, session.Player())

	session.Teardown()
	assert.Nil(t, session.Avatar())
	assert.Nil(t, session.Player())
}

func TestSessionReportError(t *testing.T) {
	session := newTestSession()
	session.ReportError(nil)
	assert.NoError(t, session.LastError())

	session.ReportError(errors.New("boom"))
	assert.EqualError(t, session.LastError(), "boom")
	session.ClearError()
	assert.NoError(t, session.LastError())
}
