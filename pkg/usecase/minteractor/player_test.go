// 指示: miu200521358
package minteractor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

func newPlayerClip() *motion.Clip {
	half := math.Sqrt(0.5)
	return motion.NewClip("loop", 2.0, []*motion.Track{
		motion.NewTrack("Hips.position", []float64{0, 2}, []float64{0, 0, 0, 2, 4, 0}),
		motion.NewTrack("Hips.quaternion", []float64{0, 2}, []float64{0, 0, 0, 1, 0, half, 0, half}),
	})
}

func TestSampleClipInterpolates(t *testing.T) {
	pose := SampleClip(newPlayerClip(), 1.0)

	position, ok := pose.Positions["Hips"]
	require.True(t, ok)
	assert.InDelta(t, 1.0, position.X, 1e-12)
	assert.InDelta(t, 2.0, position.Y, 1e-12)

	rotation, ok := pose.Rotations["Hips"]
	require.True(t, ok)
	want := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	assert.True(t, rotation.ApproxEqualThreshold(want, 1e-9), "got %v want %v", rotation, want)
}

func TestSampleClipClampsAtEnds(t *testing.T) {
	clip := newPlayerClip()

	before := SampleClip(clip, -1)
	assert.Equal(t, 0.0, before.Positions["Hips"].X)

	after := SampleClip(clip, 5)
	assert.Equal(t, 2.0, after.Positions["Hips"].X)
}

func TestSampleClipEvenlySpacesMissingTimes(t *testing.T) {
	clip := motion.NewClip("even", 1.0, []*motion.Track{
		motion.NewTrack("Hips.position", nil, []float64{0, 0, 0, 1, 0, 0, 3, 0, 0}),
	})

	pose := SampleClip(clip, 0.75)
	assert.InDelta(t, 2.0, pose.Positions["Hips"].X, 1e-12)
}

func TestSampleClipTakesShortestRotationPath(t *testing.T) {
	q := mgl64.QuatRotate(0.2, mgl64.Vec3{1, 0, 0})
	neg := q.Scale(-1)
	clip := motion.NewClip("sign", 1.0, []*motion.Track{
		motion.NewTrack("Hips.quaternion", []float64{0, 1}, []float64{
			q.V[0], q.V[1], q.V[2], q.W,
			neg.V[0], neg.V[1], neg.V[2], neg.W,
		}),
	})

	got := SampleClip(clip, 0.5).Rotations["Hips"]
	assert.True(t, got.OrientationEqualThreshold(q, 1e-9), "got %v want %v", got, q)
}

func TestAnimationPlayerLoops(t *testing.T) {
	player := NewAnimationPlayer(newPlayerClip())
	require.True(t, player.IsPlaying())

	player.Advance(1.5)
	pose := player.Advance(1.0)
	assert.InDelta(t, 0.5, player.Time(), 1e-12)
	assert.InDelta(t, 0.5, pose.Positions["Hips"].X, 1e-12)

	player.Stop()
	assert.False(t, player.IsPlaying())
	player.Advance(1.0)
	assert.Equal(t, 0.0, player.Time())
}

func TestAnimationPlayerZeroDuration(t *testing.T) {
	player := NewAnimationPlayer(motion.NewClip("still", 0, []*motion.Track{
		motion.NewTrack("Hips.position", []float64{0}, []float64{1, 2, 3}),
	}))

	pose := player.Advance(0.5)
	assert.Equal(t, 0.0, player.Time())
	assert.Equal(t, 3.0, pose.Positions["Hips"].Z)
}

func TestAnimationPlayerNil(t *testing.T) {
	var player *AnimationPlayer
	assert.False(t, player.IsPlaying())
	assert.Empty(t, player.Advance(1).Positions)
	assert.Nil(t, player.Clip())
}
