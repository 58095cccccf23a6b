// 指示: miu200521358
package tracking

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r3"
)

// newTestFace は目と鼻だけを設定した顔ランドマークを生成する。
func newTestFace(count int, nose Landmark, lidUpper, lidLower float64) Face {
	face := make(Face, count)
	for i := range face {
		face[i] = Landmark{X: 0.5, Y: 0.5}
	}
	face[LandmarkNoseTip] = nose
	face[LandmarkLeftEyeOuter] = Landmark{X: 1.0}
	face[LandmarkLeftEyeInner] = Landmark{X: 0.0}
	face[LandmarkLeftEyeUpper] = Landmark{Y: lidUpper}
	face[LandmarkLeftEyeLower] = Landmark{Y: lidLower}
	return face
}

func TestBlinkFromRatioBoundary(t *testing.T) {
	cases := []struct {
		ratio float64
		want  float64
	}{
		{ratio: 0.08, want: 0.0},
		{ratio: 0.0799, want: 1.0},
		{ratio: -0.0799, want: 1.0},
		{ratio: -0.08, want: 0.0},
		{ratio: 0.0, want: 1.0},
		{ratio: 0.5, want: 0.0},
		{ratio: math.NaN(), want: 0.0},
		{ratio: math.Inf(1), want: 0.0},
	}
	for _, tc := range cases {
		if got := BlinkFromRatio(tc.ratio, 0.08); got != tc.want {
			t.Fatalf("blink mismatch: ratio=%v got=%v want=%v", tc.ratio, got, tc.want)
		}
	}
}

func TestBlinkUsesLandmarkFormula(t *testing.T) {
	mapper := NewGazeMapper(DefaultGazeConfig())

	open := mapper.Blink(newTestFace(minimumLandmarkCount, Landmark{X: 0.5, Y: 0.5}, 0.08, 0.0))
	if open.Left != 0.0 || open.Right != 0.0 {
		t.Fatalf("ratio 0.08 should be open: %+v", open)
	}
	closed := mapper.Blink(newTestFace(minimumLandmarkCount, Landmark{X: 0.5, Y: 0.5}, 0.0799, 0.0))
	if closed.Left != 1.0 || closed.Right != 1.0 {
		t.Fatalf("ratio 0.0799 should be closed: %+v", closed)
	}
}

func TestBlinkIndependentEyes(t *testing.T) {
	config := DefaultGazeConfig()
	config.IndependentEyes = true
	mapper := NewGazeMapper(config)

	face := newTestFace(minimumBothEyesLandmarks, Landmark{X: 0.5, Y: 0.5}, 0.0, 0.0)
	face[LandmarkRightEyeOuter] = Landmark{X: 1.0}
	face[LandmarkRightEyeInner] = Landmark{X: 0.0}
	face[LandmarkRightEyeUpper] = Landmark{Y: 0.3}
	face[LandmarkRightEyeLower] = Landmark{Y: 0.0}

	got := mapper.Blink(face)
	want := BlinkWeights{Left: 1.0, Right: 0.0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("blink mismatch (-want +got):\n%s", diff)
	}
}

func TestTargetPositionFormula(t *testing.T) {
	config := DefaultGazeConfig()
	config.ViewportWidth = 1000
	config.ViewportHeight = 500
	mapper := NewGazeMapper(config)

	face := newTestFace(minimumLandmarkCount, Landmark{X: 0.75, Y: 0.25}, 0.1, 0.0)
	got := mapper.TargetPosition(face)
	want := r3.Vec{
		X: 0.25 * 0.5 * 8.0,
		Y: 0.25*(0.5/1000*500)*6.0 + 0.8,
		Z: 1.2,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("target mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateGazeIsFixedPointAtTarget(t *testing.T) {
	mapper := NewGazeMapper(DefaultGazeConfig())
	face := newTestFace(minimumLandmarkCount, Landmark{X: 0.6, Y: 0.4}, 0.1, 0.0)

	target := mapper.TargetPosition(face)
	state := &GazeState{Position: target}
	mapper.UpdateGaze(state, face)

	if state.Position != target {
		t.Fatalf("state should stay at target: got=%v want=%v", state.Position, target)
	}
}

func TestUpdateGazeMovesByFixedFactor(t *testing.T) {
	config := DefaultGazeConfig()
	mapper := NewGazeMapper(config)
	face := newTestFace(minimumLandmarkCount, Landmark{X: 0.9, Y: 0.1}, 0.1, 0.0)
	state := NewGazeState(config)
	start := state.Position
	target := mapper.TargetPosition(face)

	mapper.UpdateGaze(state, face)

	want := r3.Add(start, r3.Scale(config.Smoothing, r3.Sub(target, start)))
	if diff := cmp.Diff(want, state.Position, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("lerp mismatch (-want +got):\n%s", diff)
	}
	// 1回の更新で目標へ飛ばない。
	if r3.Norm(r3.Sub(state.Position, target)) <= 0 {
		t.Fatalf("state should not snap to target")
	}
}

func TestFirstFaceRequiresEnoughLandmarks(t *testing.T) {
	if _, ok := (FaceFrame{}).FirstFace(); ok {
		t.Fatalf("empty frame should have no face")
	}
	short := FaceFrame{Faces: []Face{make(Face, 10)}}
	if _, ok := short.FirstFace(); ok {
		t.Fatalf("short face should be rejected")
	}
	full := FaceFrame{Faces: []Face{make(Face, 478)}}
	if _, ok := full.FirstFace(); !ok {
		t.Fatalf("full face should be accepted")
	}
}
