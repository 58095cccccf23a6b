// 指示: miu200521358
package vrm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_model/gltf"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_retarget/pkg/shared/logging"
)

// LoadProgressEventType はVRM読込進捗イベント種別を表す。
type LoadProgressEventType string

const (
	// LoadProgressEventTypeFileReadComplete はファイル読込完了イベントを表す。
	LoadProgressEventTypeFileReadComplete LoadProgressEventType = "file_read_complete"
	// LoadProgressEventTypeNodesBuilt はノード階層構築完了イベントを表す。
	LoadProgressEventTypeNodesBuilt LoadProgressEventType = "nodes_built"
	// LoadProgressEventTypeCompleted はVRM読込完了イベントを表す。
	LoadProgressEventTypeCompleted LoadProgressEventType = "completed"
)

// LoadProgressEvent はVRM読込進捗イベントを表す。
type LoadProgressEvent struct {
	Type            LoadProgressEventType
	NodeCount       int
	HumanBoneCount  int
	ExpressionCount int
}

// VrmRepository はVRMアバターの読み込みを行う。
type VrmRepository struct {
	loadProgressReporter func(LoadProgressEvent)
}

// NewVrmRepository はVrmRepositoryを生成する。
func NewVrmRepository() *VrmRepository {
	return &VrmRepository{}
}

// SetLoadProgressReporter はVRM読込進捗受信コールバックを設定する。
func (r *VrmRepository) SetLoadProgressReporter(reporter func(LoadProgressEvent)) {
	if r == nil {
		return
	}
	r.loadProgressReporter = reporter
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *VrmRepository) CanLoad(path string) bool {
	ext := filepath.Ext(path)
	return strings.EqualFold(ext, ".vrm") || strings.EqualFold(ext, ".glb")
}

// InferName はパスから表示名を推定する。
func (r *VrmRepository) InferName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// Load はVRMを読み込む。
func (r *VrmRepository) Load(path string) (*avatar.Avatar, error) {
	if !r.CanLoad(path) {
		return nil, io_common.NewIoExtInvalid(path, nil)
	}
	loadTargetName := filepath.Base(path)
	logVrmInfo("VRM読込開始: file=%s", loadTargetName)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, io_common.NewIoFileNotFound(path, err)
		}
		return nil, io_common.NewIoParseFailed("VRMファイル情報の取得に失敗しました", err)
	}
	doc, err := gltf.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:      LoadProgressEventTypeFileReadComplete,
		NodeCount: len(doc.Nodes),
	})
	logVrmDebug("VRM読込ステップ: GLB解析完了 nodes=%d", len(doc.Nodes))

	version := detectVrmVersion(doc)
	if version == "" {
		return nil, io_common.NewIoFormatNotSupported("VRM拡張が見つかりません", nil)
	}
	model := avatar.NewAvatar(r.InferName(path), path, version)
	if err := appendNodes(model, doc.Nodes); err != nil {
		return nil, err
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:      LoadProgressEventTypeNodesBuilt,
		NodeCount: len(model.Nodes),
	})

	if version == avatar.VRM_VERSION_1 {
		err = applyVrm1Extension(model, doc.Extensions)
	} else {
		err = applyVrm0Extension(model, doc.Extensions)
	}
	if err != nil {
		return nil, err
	}
	if _, ok := model.NormalizedBoneNode(humanoid.HIPS); !ok {
		model.AddWarning(avatar.WarningHipsMissing)
		logVrmWarn("VRMにhipsボーン定義がありません: file=%s", loadTargetName)
	}
	if _, ok := model.ExpressionName(avatar.EXPRESSION_BLINK_LEFT); !ok {
		model.AddWarning(avatar.WarningBlinkExpressionMissing)
		logVrmDebug("VRMに瞬き表情がありません: file=%s", loadTargetName)
	}

	r.reportLoadProgress(LoadProgressEvent{
		Type:            LoadProgressEventTypeCompleted,
		NodeCount:       len(model.Nodes),
		HumanBoneCount:  len(model.HumanBones),
		ExpressionCount: len(model.Expressions),
	})
	logVrmInfo(
		"VRM読込完了: file=%s version=%s nodes=%d humanBones=%d expressions=%d",
		loadTargetName,
		version,
		len(model.Nodes),
		len(model.HumanBones),
		len(model.Expressions),
	)
	return model, nil
}

// reportLoadProgress は読込進捗イベントを通知する。
func (r *VrmRepository) reportLoadProgress(event LoadProgressEvent) {
	if r == nil || r.loadProgressReporter == nil {
		return
	}
	r.loadProgressReporter(event)
}

// logVrmInfo はVRM読込のINFOログを出力する。
func logVrmInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logVrmDebug はVRM読込のデバッグログを出力する。
func logVrmDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logVrmWarn はVRM読込の警告ログを出力する。
func logVrmWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}

// vrm0Extension はVRM0拡張の必要要素を表す。
type vrm0Extension struct {
	ExporterVersion  string               `json:"exporterVersion"`
	Humanoid         vrm0Humanoid         `json:"humanoid"`
	BlendShapeMaster vrm0BlendShapeMaster `json:"blendShapeMaster"`
}

// vrm0Humanoid はVRM0 humanoid要素を表す。
type vrm0Humanoid struct {
	HumanBones []vrm0HumanBone `json:"humanBones"`
}

// vrm0HumanBone はVRM0 humanBones要素を表す。
type vrm0HumanBone struct {
	Bone string `json:"bone"`
	Node int    `json:"node"`
}

// vrm0BlendShapeMaster はVRM0 blendShapeMaster要素を表す。
type vrm0BlendShapeMaster struct {
	BlendShapeGroups []vrm0BlendShapeGroup `json:"blendShapeGroups"`
}

// vrm0BlendShapeGroup はVRM0 blendShapeGroups要素を表す。
type vrm0BlendShapeGroup struct {
	Name       string `json:"name"`
	PresetName string `json:"presetName"`
}

// vrm1Extension はVRM1拡張の必要要素を表す。
type vrm1Extension struct {
	SpecVersion string          `json:"specVersion"`
	Humanoid    vrm1Humanoid    `json:"humanoid"`
	Expressions vrm1Expressions `json:"expressions"`
}

// vrm1Humanoid はVRM1 humanoid要素を表す。
type vrm1Humanoid struct {
	HumanBones map[string]vrm1HumanBone `json:"humanBones"`
}

// vrm1HumanBone はVRM1 humanBones要素を表す。
type vrm1HumanBone struct {
	Node *int `json:"node"`
}

// vrm1Expressions はVRM1 expressions要素を表す。
type vrm1Expressions struct {
	Preset map[string]json.RawMessage `json:"preset"`
	Custom map[string]json.RawMessage `json:"custom"`
}

// appendNodes はglTFノードをレスト姿勢付きでアバターへ追加する。
func appendNodes(model *avatar.Avatar, nodes []gltf.Node) error {
	parentIndexes, err := gltf.BuildNodeParentIndexes(nodes)
	if err != nil {
		return err
	}
	for i, node := range nodes {
		translation, rotation, scale, err := nodeLocalTRS(node)
		if err != nil {
			return err
		}
		model.AppendNode(&avatar.Node{
			Name:        resolveNodeName(i, node.Name),
			ParentIndex: parentIndexes[i],
			Children:    append([]int{}, node.Children...),
			Translation: translation,
			Rotation:    rotation,
			Scale:       scale,
		})
	}
	return nil
}

// resolveNodeName はnode名を決定する。空の場合は連番名を付ける。
func resolveNodeName(nodeIndex int, nodeName string) string {
	trimmed := strings.TrimSpace(nodeName)
	if trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("node_%03d", nodeIndex)
}

// nodeLocalTRS はnode要素からローカル位置・回転・拡縮を取り出す。
func nodeLocalTRS(node gltf.Node) (r3.Vec, mgl64.Quat, r3.Vec, error) {
	if len(node.Matrix) > 0 {
		if len(node.Matrix) != 16 {
			return r3.Vec{}, mgl64.QuatIdent(), r3.Vec{}, io_common.NewIoParseFailed(
				"node.matrix の要素数が不正です: %d", nil, len(node.Matrix))
		}
		return decomposeMatrix(node.Matrix)
	}

	translation, err := parseVec3(node.Translation, r3.Vec{}, "node.translation")
	if err != nil {
		return r3.Vec{}, mgl64.QuatIdent(), r3.Vec{}, err
	}
	scale, err := parseVec3(node.Scale, r3.Vec{X: 1, Y: 1, Z: 1}, "node.scale")
	if err != nil {
		return r3.Vec{}, mgl64.QuatIdent(), r3.Vec{}, err
	}
	rotation, err := parseQuaternion(node.Rotation)
	if err != nil {
		return r3.Vec{}, mgl64.QuatIdent(), r3.Vec{}, err
	}
	return translation, rotation, scale, nil
}

// decomposeMatrix は列優先の4x4行列を位置・回転・拡縮へ分解する。
func decomposeMatrix(values []float64) (r3.Vec, mgl64.Quat, r3.Vec, error) {
	var mat mgl64.Mat4
	copy(mat[:], values)
	translation := r3.Vec{X: mat[12], Y: mat[13], Z: mat[14]}
	scale := r3.Vec{
		X: mgl64.Vec3{mat[0], mat[1], mat[2]}.Len(),
		Y: mgl64.Vec3{mat[4], mat[5], mat[6]}.Len(),
		Z: mgl64.Vec3{mat[8], mat[9], mat[10]}.Len(),
	}
	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return translation, mgl64.QuatIdent(), scale, nil
	}
	rotMat := mgl64.Ident4()
	for col, s := range []float64{scale.X, scale.Y, scale.Z} {
		for row := 0; row < 3; row++ {
			rotMat[col*4+row] = mat[col*4+row] / s
		}
	}
	return translation, mgl64.Mat4ToQuat(rotMat).Normalize(), scale, nil
}

// parseVec3 はスライスをr3.Vecへ変換する。
func parseVec3(values []float64, defaultValue r3.Vec, label string) (r3.Vec, error) {
	if len(values) == 0 {
		return defaultValue, nil
	}
	if len(values) != 3 {
		return r3.Vec{}, io_common.NewIoParseFailed("%s の要素数が不正です: %d", nil, label, len(values))
	}
	return r3.Vec{X: values[0], Y: values[1], Z: values[2]}, nil
}

// parseQuaternion はx,y,z,w並びのスライスをクォータニオンへ変換する。
func parseQuaternion(values []float64) (mgl64.Quat, error) {
	if len(values) == 0 {
		return mgl64.QuatIdent(), nil
	}
	if len(values) != 4 {
		return mgl64.QuatIdent(), io_common.NewIoParseFailed("node.rotation の要素数が不正です: %d", nil, len(values))
	}
	q := mgl64.Quat{W: values[3], V: mgl64.Vec3{values[0], values[1], values[2]}}
	if q.Len() == 0 {
		return mgl64.QuatIdent(), nil
	}
	return q.Normalize(), nil
}

// applyVrm0Extension はVRM0拡張からヒューマノイドと表情を設定する。
func applyVrm0Extension(model *avatar.Avatar, extensions map[string]json.RawMessage) error {
	raw, ok := extensions["VRM"]
	if !ok {
		return io_common.NewIoFormatNotSupported("VRM0拡張が存在しません", nil)
	}
	ext := vrm0Extension{}
	if err := json.Unmarshal(raw, &ext); err != nil {
		return io_common.NewIoParseFailed("VRM0拡張のJSON解析に失敗しました", err)
	}
	for _, bone := range ext.Humanoid.HumanBones {
		setHumanBone(model, bone.Bone, bone.Node)
	}
	for _, group := range ext.BlendShapeMaster.BlendShapeGroups {
		preset, ok := avatar.ExpressionPresetFromVrm0(group.PresetName)
		if !ok {
			continue
		}
		if _, exists := model.Expressions[preset]; exists {
			continue
		}
		name := group.Name
		if strings.TrimSpace(name) == "" {
			name = group.PresetName
		}
		model.Expressions[preset] = name
	}
	return nil
}

// applyVrm1Extension はVRM1拡張からヒューマノイドと表情を設定する。
func applyVrm1Extension(model *avatar.Avatar, extensions map[string]json.RawMessage) error {
	raw, ok := extensions["VRMC_vrm"]
	if !ok {
		return io_common.NewIoFormatNotSupported("VRM1拡張が存在しません", nil)
	}
	ext := vrm1Extension{}
	if err := json.Unmarshal(raw, &ext); err != nil {
		return io_common.NewIoParseFailed("VRM1拡張のJSON解析に失敗しました", err)
	}
	for key, bone := range ext.Humanoid.HumanBones {
		if bone.Node == nil {
			continue
		}
		setHumanBone(model, key, *bone.Node)
	}
	for key := range ext.Expressions.Preset {
		model.Expressions[avatar.ExpressionPreset(key)] = key
	}
	return nil
}

// setHumanBone は範囲内のノードだけをヒューマノイドボーンとして登録する。
func setHumanBone(model *avatar.Avatar, boneName string, nodeIndex int) {
	if strings.TrimSpace(boneName) == "" {
		return
	}
	if nodeIndex < 0 || nodeIndex >= len(model.Nodes) {
		model.AddWarning(avatar.WarningHumanBoneNodeInvalid)
		logVrmWarn("humanBoneのnode indexが不正です: bone=%s node=%d", boneName, nodeIndex)
		return
	}
	model.HumanBones[humanoid.BoneName(boneName)] = nodeIndex
}

// detectVrmVersion は拡張宣言から優先バージョンを判定する。
func detectVrmVersion(doc *gltf.Document) avatar.VrmVersion {
	hasVrm1 := containsIgnoreCase(doc.ExtensionsUsed, "VRMC_vrm")
	hasVrm0 := containsIgnoreCase(doc.ExtensionsUsed, "VRM")
	if doc.Extensions != nil {
		if _, ok := doc.Extensions["VRMC_vrm"]; ok {
			hasVrm1 = true
		}
		if _, ok := doc.Extensions["VRM"]; ok {
			hasVrm0 = true
		}
	}

	// VRM0/1 同時宣言時は VRM1 を優先する。
	if hasVrm1 {
		return avatar.VRM_VERSION_1
	}
	if hasVrm0 {
		return avatar.VRM_VERSION_0
	}
	return ""
}

// containsIgnoreCase は大文字小文字を無視して要素を検索する。
func containsIgnoreCase(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}
