// 指示: miu200521358
// Package io_motion はモーションクリップの読込と書出を提供する。
package io_motion

import (
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/shared/logging"
)

// MotionRepository はglTFアニメーションとthree.jsクリップJSONを読み込む。
type MotionRepository struct {
	// AnimationName が空でない場合、同名のglTFアニメーションを選ぶ。
	AnimationName string
}

// NewMotionRepository はMotionRepositoryを生成する。
func NewMotionRepository() *MotionRepository {
	return &MotionRepository{}
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *MotionRepository) CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf", ".json":
		return true
	}
	return false
}

// InferName はパスからクリップ名を推定する。
func (r *MotionRepository) InferName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load はモーションを読み込む。
func (r *MotionRepository) Load(path string) (*motion.Clip, error) {
	if !r.CanLoad(path) {
		return nil, io_common.NewIoExtInvalid(path, nil)
	}
	logMotionInfo("モーション読込開始: file=%s", filepath.Base(path))

	var clip *motion.Clip
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		clip, err = readThreeClipFile(path)
	} else {
		clip, err = readGltfAnimation(path, r.AnimationName)
	}
	if err != nil {
		return nil, err
	}
	if clip.Name == "" {
		clip.Name = r.InferName(path)
	}
	if err := clip.Validate(); err != nil {
		return nil, io_common.NewIoParseFailed("モーションの整合性検証に失敗しました", err)
	}
	logMotionInfo("モーション読込完了: file=%s clip=%s tracks=%d duration=%.3f",
		filepath.Base(path), clip.Name, len(clip.Tracks), clip.Duration)
	return clip, nil
}

// logMotionInfo はモーション入出力のINFOログを出力する。
func logMotionInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logMotionDebug はモーション入出力のデバッグログを出力する。
func logMotionDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}
