// 指示: miu200521358
// Package avatar は読み込み済みVRMアバターのノード階層とヒューマノイド定義を表す。
package avatar

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/humanoid"
)

// VrmVersion はVRM仕様バージョン。
type VrmVersion string

const (
	VRM_VERSION_0 VrmVersion = "0.x"
	VRM_VERSION_1 VrmVersion = "1.0"
)

// ExpressionPreset は表情プリセット。値はVRM1のプリセット名。
type ExpressionPreset string

const (
	EXPRESSION_BLINK_LEFT  ExpressionPreset = "blinkLeft"
	EXPRESSION_BLINK_RIGHT ExpressionPreset = "blinkRight"
	EXPRESSION_BLINK       ExpressionPreset = "blink"
)

// vrm0ExpressionPresets はVRM0 presetName からプリセットへの対応。
var vrm0ExpressionPresets = map[string]ExpressionPreset{
	"blink_l": EXPRESSION_BLINK_LEFT,
	"blink_r": EXPRESSION_BLINK_RIGHT,
	"blink":   EXPRESSION_BLINK,
}

// ExpressionPresetFromVrm0 はVRM0 presetName をプリセットへ変換する。
func ExpressionPresetFromVrm0(presetName string) (ExpressionPreset, bool) {
	preset, ok := vrm0ExpressionPresets[strings.ToLower(strings.TrimSpace(presetName))]
	return preset, ok
}

// Node はglTFノード1件。回転・位置はレスト姿勢のローカル値。
type Node struct {
	Index       int
	Name        string
	ParentIndex int
	Children    []int
	Translation r3.Vec
	Rotation    mgl64.Quat
	Scale       r3.Vec
}

// Avatar は読み込み済みアバター。Warnings には読込時の警告IDを記録する。
type Avatar struct {
	Name        string
	Path        string
	Version     VrmVersion
	Nodes       []*Node
	HumanBones  map[humanoid.BoneName]int
	Expressions map[ExpressionPreset]string
	Warnings    []string
	nodeByName  map[string]int
}

// NewAvatar はアバターを生成する。
func NewAvatar(name string, path string, version VrmVersion) *Avatar {
	return &Avatar{
		Name:        name,
		Path:        path,
		Version:     version,
		Nodes:       []*Node{},
		HumanBones:  map[humanoid.BoneName]int{},
		Expressions: map[ExpressionPreset]string{},
		nodeByName:  map[string]int{},
	}
}

// AppendNode はノードを追加する。同名ノードは先勝ち。
func (a *Avatar) AppendNode(node *Node) {
	node.Index = len(a.Nodes)
	a.Nodes = append(a.Nodes, node)
	if _, exists := a.nodeByName[node.Name]; exists {
		a.AddWarning(WarningDuplicateNodeName)
		return
	}
	a.nodeByName[node.Name] = node.Index
}

// NodeByName は名前でノードを取得する。
func (a *Avatar) NodeByName(name string) (*Node, bool) {
	if a == nil {
		return nil, false
	}
	idx, ok := a.nodeByName[name]
	if !ok {
		return nil, false
	}
	return a.Nodes[idx], true
}

// NormalizedBoneNode は正規化ボーン名に対応するノードを返す。
func (a *Avatar) NormalizedBoneNode(name humanoid.BoneName) (*Node, bool) {
	if a == nil {
		return nil, false
	}
	idx, ok := a.HumanBones[name]
	if !ok || idx < 0 || idx >= len(a.Nodes) {
		return nil, false
	}
	return a.Nodes[idx], true
}

// ExpressionName はプリセットに対応する表情名を返す。
// 左右別の瞬きが無い場合は両目の瞬きで代用する。
func (a *Avatar) ExpressionName(preset ExpressionPreset) (string, bool) {
	if a == nil {
		return "", false
	}
	if name, ok := a.Expressions[preset]; ok {
		return name, true
	}
	if preset == EXPRESSION_BLINK_LEFT || preset == EXPRESSION_BLINK_RIGHT {
		name, ok := a.Expressions[EXPRESSION_BLINK]
		return name, ok
	}
	return "", false
}
