// 指示: miu200521358
package vrm

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/miu200521358/mu_vrm_retarget/internal/testglb"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/humanoid"
)

func TestVrmRepositoryCanLoad(t *testing.T) {
	repository := NewVrmRepository()

	if !repository.CanLoad("sample.vrm") {
		t.Fatalf("expected sample.vrm to be loadable")
	}
	if !repository.CanLoad("sample.VRM") {
		t.Fatalf("expected sample.VRM to be loadable")
	}
	if !repository.CanLoad("sample.glb") {
		t.Fatalf("expected sample.glb to be loadable")
	}
	if repository.CanLoad("sample.pmx") {
		t.Fatalf("expected sample.pmx to be not loadable")
	}
}

func TestVrmRepositoryInferName(t *testing.T) {
	repository := NewVrmRepository()

	got := repository.InferName("C:/work/avatar.vrm")
	if got != "avatar" {
		t.Fatalf("expected avatar, got %s", got)
	}
}

func TestVrmRepositoryLoadReturnsExtInvalid(t *testing.T) {
	repository := NewVrmRepository()

	_, err := repository.Load("sample.pmx")
	if err == nil {
		t.Fatalf("expected error to be not nil")
	}
	if io_common.ExtractErrorID(err) != "14102" {
		t.Fatalf("expected error id 14102, got %s", io_common.ExtractErrorID(err))
	}
}

func TestVrmRepositoryLoadReturnsFileNotFound(t *testing.T) {
	repository := NewVrmRepository()

	_, err := repository.Load(filepath.Join(t.TempDir(), "missing.vrm"))
	if err == nil {
		t.Fatalf("expected error to be not nil")
	}
	if io_common.ExtractErrorID(err) != "14101" {
		t.Fatalf("expected error id 14101, got %s", io_common.ExtractErrorID(err))
	}
}

func TestVrmRepositoryLoadReturnsFormatNotSupportedWithoutVrmExtension(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "plain.glb")
	testglb.Write(t, path, map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{map[string]any{"name": "root"}},
	}, nil)

	_, err := repository.Load(path)
	if io_common.ExtractErrorID(err) != "14104" {
		t.Fatalf("expected error id 14104, got %v", err)
	}
}

func TestVrmRepositoryLoadVrm1Preferred(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "avatar.vrm")

	testglb.Write(t, path, map[string]any{
		"asset": map[string]any{
			"version":   "2.0",
			"generator": "VRoid Studio v1.0.0",
		},
		"extensionsUsed": []string{"VRM", "VRMC_vrm"},
		"nodes": []any{
			map[string]any{
				"name":        "hips_node",
				"translation": []float64{0, 0.9, 0},
				"children":    []int{1},
			},
			map[string]any{
				"name":        "spine_node",
				"translation": []float64{0, 0.2, 0},
				"rotation":    []float64{0, 0, 0, 2},
				"children":    []int{2},
			},
			map[string]any{
				"name":        "chest_node",
				"translation": []float64{0, 0.2, 0},
			},
			map[string]any{
				"name": "",
			},
		},
		"extensions": map[string]any{
			"VRM": map[string]any{
				"humanoid": map[string]any{
					"humanBones": []any{
						map[string]any{"bone": "hips", "node": 2},
					},
				},
			},
			"VRMC_vrm": map[string]any{
				"specVersion": "1.0",
				"humanoid": map[string]any{
					"humanBones": map[string]any{
						"hips":       map[string]any{"node": 0},
						"spine":      map[string]any{"node": 1},
						"upperChest": map[string]any{"node": 2},
						"neck":       map[string]any{"node": 99},
					},
				},
				"expressions": map[string]any{
					"preset": map[string]any{
						"blinkLeft":  map[string]any{},
						"blinkRight": map[string]any{},
					},
				},
			},
		},
	}, nil)

	model, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if model.Version != avatar.VRM_VERSION_1 {
		t.Fatalf("expected VRM 1.0, got %s", model.Version)
	}
	hips, ok := model.NormalizedBoneNode(humanoid.HIPS)
	if !ok || hips.Name != "hips_node" {
		t.Fatalf("expected hips_node, got %+v", hips)
	}
	upperChest, ok := model.NormalizedBoneNode(humanoid.UPPER_CHEST)
	if !ok || upperChest.Name != "chest_node" {
		t.Fatalf("expected chest_node, got %+v", upperChest)
	}
	if upperChest.ParentIndex != 1 {
		t.Fatalf("expected chest_node parent to be spine_node, got %d", upperChest.ParentIndex)
	}
	if _, ok := model.NormalizedBoneNode(humanoid.NECK); ok {
		t.Fatalf("out of range neck node should be ignored")
	}
	if !model.HasWarning(avatar.WarningHumanBoneNodeInvalid) {
		t.Fatalf("expected invalid node warning, got %v", model.Warnings)
	}
	if model.HasWarning(avatar.WarningHipsMissing) {
		t.Fatalf("hips should be defined")
	}
	spine, _ := model.NodeByName("spine_node")
	if math.Abs(spine.Rotation.Len()-1) > 1e-12 {
		t.Fatalf("rotation should be normalized: %v", spine.Rotation)
	}
	if _, ok := model.NodeByName("node_003"); !ok {
		t.Fatalf("unnamed node should get a generated name")
	}
	if name, ok := model.ExpressionName(avatar.EXPRESSION_BLINK_LEFT); !ok || name != "blinkLeft" {
		t.Fatalf("expected blinkLeft expression, got %q", name)
	}
}

func TestVrmRepositoryLoadVrm0Expressions(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "avatar0.vrm")
	testglb.Write(t, path, map[string]any{
		"asset":          map[string]any{"version": "2.0"},
		"extensionsUsed": []string{"VRM"},
		"nodes": []any{
			map[string]any{"name": "J_Bip_C_Hips", "translation": []float64{0, 1, 0}},
		},
		"extensions": map[string]any{
			"VRM": map[string]any{
				"humanoid": map[string]any{
					"humanBones": []any{
						map[string]any{"bone": "hips", "node": 0},
					},
				},
				"blendShapeMaster": map[string]any{
					"blendShapeGroups": []any{
						map[string]any{"name": "Blink_L", "presetName": "blink_l"},
						map[string]any{"name": "Blink_R", "presetName": "blink_r"},
						map[string]any{"name": "Joy", "presetName": "joy"},
					},
				},
			},
		},
	}, nil)

	model, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if model.Version != avatar.VRM_VERSION_0 {
		t.Fatalf("expected VRM 0.x, got %s", model.Version)
	}
	if name, ok := model.ExpressionName(avatar.EXPRESSION_BLINK_RIGHT); !ok || name != "Blink_R" {
		t.Fatalf("expected Blink_R, got %q", name)
	}
	if len(model.Expressions) != 2 {
		t.Fatalf("unexpected expressions: %v", model.Expressions)
	}
	hips, ok := model.NormalizedBoneNode(humanoid.HIPS)
	if !ok || hips.Translation.Y != 1 {
		t.Fatalf("expected hips rest translation, got %+v", hips)
	}
}

func TestVrmRepositoryLoadReportsProgress(t *testing.T) {
	repository := NewVrmRepository()
	events := []LoadProgressEventType{}
	repository.SetLoadProgressReporter(func(event LoadProgressEvent) {
		events = append(events, event.Type)
	})
	path := filepath.Join(t.TempDir(), "avatar.vrm")
	testglb.Write(t, path, map[string]any{
		"asset":          map[string]any{"version": "2.0"},
		"extensionsUsed": []string{"VRMC_vrm"},
		"nodes":          []any{map[string]any{"name": "hips"}},
		"extensions": map[string]any{
			"VRMC_vrm": map[string]any{
				"humanoid": map[string]any{
					"humanBones": map[string]any{"hips": map[string]any{"node": 0}},
				},
			},
		},
	}, nil)

	if _, err := repository.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	want := []LoadProgressEventType{
		LoadProgressEventTypeFileReadComplete,
		LoadProgressEventTypeNodesBuilt,
		LoadProgressEventTypeCompleted,
	}
	if len(events) != len(want) {
		t.Fatalf("unexpected events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event mismatch at %d: got=%s want=%s", i, events[i], want[i])
		}
	}
}

func TestDecomposeMatrixRecoversScaleAndTranslation(t *testing.T) {
	translation, rotation, scale, err := decomposeMatrix([]float64{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		1, 2, 3, 1,
	})
	if err != nil {
		t.Fatalf("decompose failed: %v", err)
	}
	if translation.X != 1 || translation.Y != 2 || translation.Z != 3 {
		t.Fatalf("translation mismatch: %v", translation)
	}
	if scale.X != 2 || scale.Y != 2 || scale.Z != 2 {
		t.Fatalf("scale mismatch: %v", scale)
	}
	if math.Abs(rotation.W-1) > 1e-12 {
		t.Fatalf("rotation should be identity: %v", rotation)
	}
}
