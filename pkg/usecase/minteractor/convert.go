// 指示: miu200521358
package minteractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

// ConvertRequest はリターゲット変換要求を表す。
// Avatar/Motion が設定済みの場合は読込を省略する。
type ConvertRequest struct {
	AvatarPath string
	MotionPath string
	OutputPath string
	Avatar     *avatar.Avatar
	Motion     *motion.Clip
	Options    RetargetOptions
}

// ConvertResult はリターゲット変換結果を表す。Clip が nil の場合は保存していない。
type ConvertResult struct {
	Avatar     *avatar.Avatar
	Clip       *motion.Clip
	Report     RetargetReport
	OutputPath string
}

// SaveClip はクリップを保存する。
func (uc *RetargetUsecase) SaveClip(path string, clip *motion.Clip) error {
	if uc.clipWriter == nil {
		return fmt.Errorf("クリップ保存リポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("保存先パスが未指定です")
	}
	if clip == nil {
		return fmt.Errorf("保存対象クリップが未設定です")
	}
	return uc.clipWriter.Save(path, clip)
}

// Convert はアバターとモーションを読み込み、リターゲットしたクリップを保存する。
func (uc *RetargetUsecase) Convert(request ConvertRequest) (*ConvertResult, error) {
	if request.Avatar == nil && strings.TrimSpace(request.AvatarPath) == "" {
		return nil, fmt.Errorf("入力アバターパスが未指定です")
	}
	if request.Motion == nil && strings.TrimSpace(request.MotionPath) == "" {
		return nil, fmt.Errorf("入力モーションパスが未指定です")
	}

	outputPath := strings.TrimSpace(request.OutputPath)
	if outputPath == "" {
		outputPath = defaultOutputPath(request.MotionPath, request.AvatarPath)
	}
	if outputPath == "" {
		return nil, fmt.Errorf("保存先パスが未指定です")
	}
	if !strings.EqualFold(filepath.Ext(outputPath), ".json") {
		return nil, fmt.Errorf("保存先拡張子が .json ではありません: %s", outputPath)
	}

	model := request.Avatar
	if model == nil {
		loaded, err := uc.LoadAvatar(request.AvatarPath)
		if err != nil {
			return nil, err
		}
		model = loaded
	}
	source := request.Motion
	if source == nil {
		loaded, err := uc.LoadMotion(request.MotionPath)
		if err != nil {
			return nil, err
		}
		source = loaded
	}

	clip, report, err := RetargetClip(source, model, request.Options)
	if err != nil {
		return nil, err
	}
	result := &ConvertResult{Avatar: model, Clip: clip, Report: report, OutputPath: outputPath}
	if clip == nil {
		return result, nil
	}
	if err := uc.SaveClip(outputPath, clip); err != nil {
		return nil, err
	}
	return result, nil
}

// defaultOutputPath はモーションとアバターのパスから既定の出力パスを生成する。
func defaultOutputPath(motionPath string, avatarPath string) string {
	if strings.TrimSpace(motionPath) == "" {
		return ""
	}
	dir := filepath.Dir(motionPath)
	base := strings.TrimSuffix(filepath.Base(motionPath), filepath.Ext(motionPath))
	if strings.TrimSpace(base) == "" {
		return ""
	}
	avatarBase := strings.TrimSuffix(filepath.Base(avatarPath), filepath.Ext(avatarPath))
	if strings.TrimSpace(avatarBase) == "" || avatarBase == "." {
		return filepath.Join(dir, base+"_retarget.json")
	}
	return filepath.Join(dir, base+"_"+avatarBase+".json")
}
