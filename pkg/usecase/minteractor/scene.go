// 指示: miu200521358
package minteractor

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
)

// SceneConfig は表示シーンの配置定数。
type SceneConfig struct {
	// ProjectionDistance は注視点とアバターのZ位置。
	ProjectionDistance float64 `json:"projection_distance"`
	// FloorHeight はアバター原点のY位置。
	FloorHeight   float64 `json:"floor_height"`
	AvatarYawGain float64 `json:"avatar_yaw_gain"`
	FovDegrees    float64 `json:"fov_degrees"`
	Near          float64 `json:"near"`
	Far           float64 `json:"far"`
}

// DefaultSceneConfig は既定値を返す。
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		ProjectionDistance: -8.0,
		FloorHeight:        -0.8,
		AvatarYawGain:      0.3,
		FovDegrees:         30.0,
		Near:               0.1,
		Far:                100.0,
	}
}

// Camera は透視投影カメラ。
type Camera struct {
	Eye        r3.Vec
	Target     r3.Vec
	FovDegrees float64
	Near       float64
	Far        float64
}

// ViewProjection はビュー投影行列を返す。
func (c Camera) ViewProjection(aspect float64) mgl64.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	projection := mgl64.Perspective(mgl64.DegToRad(c.FovDegrees), aspect, c.Near, c.Far)
	view := mgl64.LookAtV(toMglVec(c.Eye), toMglVec(c.Target), mgl64.Vec3{0, 1, 0})
	return projection.Mul4(view)
}

// ProjectToScreen はワールド座標をスクリーン座標(左上原点)へ投影する。
// カメラ後方または視錐台の奥行き範囲外の点は ok=false。
func ProjectToScreen(viewProjection mgl64.Mat4, p r3.Vec, width, height float64) (float64, float64, bool) {
	clip := viewProjection.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	if ndc[2] < -1 || ndc[2] > 1 {
		return 0, 0, false
	}
	x := (ndc[0] + 1) * 0.5 * width
	y := (1 - ndc[1]) * 0.5 * height
	return x, y, true
}

// toMglVec はr3.Vecをmgl64.Vec3へ変換する。
func toMglVec(v r3.Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// fromMglVec はmgl64.Vec3をr3.Vecへ変換する。
func fromMglVec(v mgl64.Vec3) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// SolveWorldPositions は順運動学でノードのワールド位置を求める。
// ポーズに値のあるノードはレスト値の代わりにその値を使う。
func SolveWorldPositions(model *avatar.Avatar, pose Pose, root mgl64.Mat4) []r3.Vec {
	if model == nil {
		return nil
	}
	worlds := make([]mgl64.Mat4, len(model.Nodes))
	solved := make([]bool, len(model.Nodes))
	positions := make([]r3.Vec, len(model.Nodes))
	var solve func(i int) mgl64.Mat4
	solve = func(i int) mgl64.Mat4 {
		if solved[i] {
			return worlds[i]
		}
		node := model.Nodes[i]
		parent := root
		if node.ParentIndex >= 0 && node.ParentIndex < len(model.Nodes) {
			parent = solve(node.ParentIndex)
		}
		worlds[i] = parent.Mul4(localMatrix(node, pose))
		solved[i] = true
		return worlds[i]
	}
	for i := range model.Nodes {
		positions[i] = fromMglVec(solve(i).Col(3).Vec3())
	}
	return positions
}

// localMatrix はノードのローカル行列を返す。
func localMatrix(node *avatar.Node, pose Pose) mgl64.Mat4 {
	translation := node.Translation
	if v, ok := pose.Positions[node.Name]; ok {
		translation = v
	}
	rotation := node.Rotation
	if q, ok := pose.Rotations[node.Name]; ok {
		rotation = q
	}
	if rotation.Len() == 0 {
		rotation = mgl64.QuatIdent()
	}
	scale := node.Scale
	if scale == (r3.Vec{}) {
		scale = r3.Vec{X: 1, Y: 1, Z: 1}
	}
	return mgl64.Translate3D(translation.X, translation.Y, translation.Z).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(scale.X, scale.Y, scale.Z))
}

// Segment はスクリーン上の線分。
type Segment struct {
	X0, Y0, X1, Y1 float64
}

// floorHalfExtent は床グリッドの半幅。
const floorHalfExtent = 2.0

// BoneParents はヒューマノイドボーン毎に、最も近いヒューマノイドボーンの祖先ノードを返す。
// 祖先が無いボーン(hips など)は含まない。
func BoneParents(model *avatar.Avatar) map[int]int {
	parents := map[int]int{}
	if model == nil {
		return parents
	}
	isBone := map[int]bool{}
	for _, idx := range model.HumanBones {
		if idx >= 0 && idx < len(model.Nodes) {
			isBone[idx] = true
		}
	}
	for idx := range isBone {
		p := model.Nodes[idx].ParentIndex
		for depth := 0; p >= 0 && p < len(model.Nodes) && depth < len(model.Nodes); depth++ {
			if isBone[p] {
				parents[idx] = p
				break
			}
			p = model.Nodes[p].ParentIndex
		}
	}
	return parents
}

// projectSegment は両端点を投影できた場合だけ線分を返す。
func projectSegment(vp mgl64.Mat4, a, b r3.Vec, width, height float64) (Segment, bool) {
	x0, y0, ok0 := ProjectToScreen(vp, a, width, height)
	x1, y1, ok1 := ProjectToScreen(vp, b, width, height)
	if !ok0 || !ok1 {
		return Segment{}, false
	}
	return Segment{X0: x0, Y0: y0, X1: x1, Y1: y1}, true
}
