// 指示: miu200521358
package minteractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

func TestFrameLoopInstallsLoadedAssets(t *testing.T) {
	loop := NewFrameLoop(newTestSession(), NewFrameMailbox())

	avatars := make(chan LoadResult[*avatar.Avatar], 1)
	motions := make(chan LoadResult[*motion.Clip], 1)
	loop.WatchAvatar(avatars)
	loop.WatchMotion(motions)

	loop.Tick(0)
	assert.True(t, loop.Pending(), "nothing received yet")

	motions <- LoadResult[*motion.Clip]{Value: newScenarioClip()}
	avatars <- LoadResult[*avatar.Avatar]{Value: newTestAvatar()}
	loop.Tick(0.5)

	assert.False(t, loop.Pending())
	require.NotNil(t, loop.Session().Player())
	assert.InDelta(t, 0.5, loop.Session().Player().Time(), 1e-12)
	assert.NoError(t, loop.Session().LastError())
}

func TestFrameLoopReportsLoadError(t *testing.T) {
	loop := NewFrameLoop(newTestSession(), nil)
	avatars := make(chan LoadResult[*avatar.Avatar], 1)
	loop.WatchAvatar(avatars)

	loadErr := &LoadError{Target: LOAD_TARGET_AVATAR, Kind: LOAD_ERROR_KIND_NOT_FOUND, Path: "x.vrm"}
	avatars <- LoadResult[*avatar.Avatar]{Path: "x.vrm", Err: loadErr}
	loop.Tick(0)

	var got *LoadError
	require.True(t, errors.As(loop.Session().LastError(), &got))
	assert.Equal(t, LOAD_ERROR_KIND_NOT_FOUND, got.Kind)
	assert.Nil(t, loop.Session().Avatar())
}

func TestFrameLoopAppliesLatestFaceAndLandmarkError(t *testing.T) {
	mailbox := NewFrameMailbox()
	loop := NewFrameLoop(newTestSession(), mailbox)
	done := make(chan error, 1)
	loop.WatchLandmarks(done)

	mailbox.Put(newClosedEyeFrame(0.5, 0.5))
	loop.Tick(0)
	assert.Equal(t, 1.0, loop.Session().Blink().Left)

	done <- &LandmarkError{Err: errors.New("closed")}
	loop.Tick(0)
	var landmarkErr *LandmarkError
	assert.True(t, errors.As(loop.Session().LastError(), &landmarkErr))
}

func TestSessionSegments(t *testing.T) {
	session := newTestSession()
	assert.Nil(t, session.BoneSegments(1280, 720))
	assert.NotEmpty(t, session.FloorSegments(1280, 720))
	assert.Nil(t, session.FloorSegments(0, 720))

	session.InstallAvatar(newTestAvatar())
	session.Advance(0)
	// spine と左右脚がそれぞれ hips へ繋がる。
	assert.Len(t, session.BoneSegments(1280, 720), 3)
}

func TestBoneParentsSkipsNonHumanoidNodes(t *testing.T) {
	model := avatar.NewAvatar("a", "a.vrm", avatar.VRM_VERSION_1)
	model.AppendNode(&avatar.Node{Name: "Hips", ParentIndex: -1})
	model.AppendNode(&avatar.Node{Name: "Twist", ParentIndex: 0})
	model.AppendNode(&avatar.Node{Name: "Spine", ParentIndex: 1})
	model.HumanBones["hips"] = 0
	model.HumanBones["spine"] = 2

	assert.Equal(t, map[int]int{2: 0}, BoneParents(model))
	assert.Empty(t, BoneParents(nil))
}
