// 指示: miu200521358
package minteractor

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/retarget"
)

// Pose はノード名毎のアニメーション値。含まれないノードはレスト姿勢のまま。
type Pose struct {
	Rotations map[string]mgl64.Quat
	Positions map[string]r3.Vec
}

// NewPose は空のポーズを生成する。
func NewPose() Pose {
	return Pose{
		Rotations: map[string]mgl64.Quat{},
		Positions: map[string]r3.Vec{},
	}
}

// AnimationPlayer はクリップをループ再生する。
type AnimationPlayer struct {
	clip    *motion.Clip
	time    float64
	playing bool
}

// NewAnimationPlayer は再生状態のプレイヤーを生成する。
func NewAnimationPlayer(clip *motion.Clip) *AnimationPlayer {
	return &AnimationPlayer{clip: clip, playing: clip != nil}
}

// Clip は再生中のクリップを返す。
func (p *AnimationPlayer) Clip() *motion.Clip {
	if p == nil {
		return nil
	}
	return p.clip
}

// Time は現在の再生位置(秒)を返す。
func (p *AnimationPlayer) Time() float64 {
	if p == nil {
		return 0
	}
	return p.time
}

// IsPlaying は再生中かを返す。
func (p *AnimationPlayer) IsPlaying() bool {
	return p != nil && p.playing
}

// Stop は再生を停止し、再生位置を先頭へ戻す。
func (p *AnimationPlayer) Stop() {
	if p == nil {
		return
	}
	p.playing = false
	p.time = 0
}

// Advance は再生位置を dt 秒進めてポーズを返す。停止中は位置を進めない。
func (p *AnimationPlayer) Advance(dt float64) Pose {
	if p == nil || p.clip == nil {
		return NewPose()
	}
	if p.playing && dt > 0 {
		p.time = loopTime(p.time+dt, p.clip.Duration)
	}
	return SampleClip(p.clip, p.time)
}

// loopTime は再生位置をクリップ長で折り返す。
func loopTime(t float64, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	t = math.Mod(t, duration)
	if t < 0 {
		t += duration
	}
	return t
}

// SampleClip は時刻 t のポーズを求める。位置は線形補間、回転は球面線形補間。
func SampleClip(clip *motion.Clip, t float64) Pose {
	pose := NewPose()
	if clip == nil {
		return pose
	}
	for _, track := range clip.Tracks {
		if track == nil {
			continue
		}
		nodeName := motion.TrackNodeName(track.Name)
		switch track.Property {
		case motion.TRACK_PROPERTY_POSITION:
			if v, ok := samplePosition(track, clip.Duration, t); ok {
				pose.Positions[nodeName] = v
			}
		case motion.TRACK_PROPERTY_QUATERNION:
			if q, ok := sampleQuaternion(track, clip.Duration, t); ok {
				pose.Rotations[nodeName] = q
			}
		}
	}
	return pose
}

// keyframeSpan は t を挟む2キーと補間率を返す。
// Times が空の場合はクリップ長へ等間隔に並べる。
func keyframeSpan(times []float64, count int, duration float64, t float64) (int, int, float64) {
	if count <= 1 {
		return 0, 0, 0
	}
	keyTime := func(i int) float64 {
		if len(times) == count {
			return times[i]
		}
		return duration * float64(i) / float64(count-1)
	}
	if t <= keyTime(0) {
		return 0, 0, 0
	}
	if t >= keyTime(count-1) {
		return count - 1, count - 1, 0
	}
	next := sort.Search(count, func(i int) bool { return keyTime(i) > t })
	prev := next - 1
	span := keyTime(next) - keyTime(prev)
	if span <= 0 {
		return next, next, 0
	}
	return prev, next, (t - keyTime(prev)) / span
}

// samplePosition は位置トラックを補間する。
func samplePosition(track *motion.Track, duration float64, t float64) (r3.Vec, bool) {
	count := track.SampleCount()
	if count == 0 {
		return r3.Vec{}, false
	}
	prev, next, alpha := keyframeSpan(track.Times, count, duration, t)
	a := r3.Vec{X: track.Values[prev*3], Y: track.Values[prev*3+1], Z: track.Values[prev*3+2]}
	b := r3.Vec{X: track.Values[next*3], Y: track.Values[next*3+1], Z: track.Values[next*3+2]}
	return r3.Add(a, r3.Scale(alpha, r3.Sub(b, a))), true
}

// sampleQuaternion は回転トラックを補間する。
func sampleQuaternion(track *motion.Track, duration float64, t float64) (mgl64.Quat, bool) {
	count := track.SampleCount()
	if count == 0 {
		return mgl64.QuatIdent(), false
	}
	prev, next, alpha := keyframeSpan(track.Times, count, duration, t)
	a := retarget.QuatFromValues(track.Values[prev*4 : prev*4+4])
	if prev == next || alpha == 0 {
		return a, true
	}
	b := retarget.QuatFromValues(track.Values[next*4 : next*4+4])
	// 最短経路で補間する。
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, alpha), true
}
