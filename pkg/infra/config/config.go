// 指示: miu200521358
// Package config はリターゲットと表示の設定JSONを読み込む。
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/Knetic/govaluate.v3"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/retarget"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/minteractor"
)

// maxConfigFileSize は設定ファイルの上限サイズ。
const maxConfigFileSize = 1 * 1024 * 1024

// Config は設定ファイルのルート。未指定の項目は既定値を使う。
type Config struct {
	Preset       *string `json:"preset,omitempty"`
	RootMotion   *string `json:"root_motion,omitempty"`
	SwapLegSides *bool   `json:"swap_leg_sides,omitempty"`
	ClipName     *string `json:"clip_name,omitempty"`
	Debug        *bool   `json:"debug,omitempty"`

	// Corrections は分類名(hips, upper_leg など)毎の補正規則の上書き。
	Corrections map[string]CorrectionOverride `json:"corrections,omitempty"`
	// BoneNames は既定の対応表へ追加するボーン名対応。
	BoneNames map[string]string `json:"bone_names,omitempty"`

	// Gaze と Scene は既定値へ部分的に上書きする。
	Gaze  json.RawMessage `json:"gaze,omitempty"`
	Scene json.RawMessage `json:"scene,omitempty"`
}

// CorrectionOverride は補正規則1件の上書き。
// Angle と PositionScale は式で、pi と deg(=180/pi) を参照できる。
type CorrectionOverride struct {
	Order         *string   `json:"order,omitempty"`
	Axis          []float64 `json:"axis,omitempty"`
	Angle         *string   `json:"angle,omitempty"`
	MirrorBySide  *bool     `json:"mirror_by_side,omitempty"`
	Flip          *[3]bool  `json:"flip,omitempty"`
	PositionScale *string   `json:"position_scale,omitempty"`
}

// EmptyConfig は全項目未指定の設定を返す。
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig はJSONファイルから設定を読み込み、検証する。
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); !strings.EqualFold(ext, ".json") {
		return nil, fmt.Errorf("設定ファイルの拡張子が .json ではありません: %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの確認に失敗しました: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("設定ファイルが大きすぎます: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読込に失敗しました: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("設定JSONの解析に失敗しました: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}
	return cfg, nil
}

// Validate は全ての派生値を組み立てて検証する。
func (c *Config) Validate() error {
	if _, err := c.RetargetOptions(); err != nil {
		return err
	}
	if _, err := c.GazeConfig(); err != nil {
		return err
	}
	if _, err := c.SceneConfig(); err != nil {
		return err
	}
	return nil
}

// GetClipName は出力クリップ名を返す。
func (c *Config) GetClipName() string {
	if c == nil || c.ClipName == nil || strings.TrimSpace(*c.ClipName) == "" {
		return minteractor.DefaultClipName
	}
	return strings.TrimSpace(*c.ClipName)
}

// GetDebug はデバッグログ有効化の指定を返す。
func (c *Config) GetDebug() bool {
	if c == nil || c.Debug == nil {
		return false
	}
	return *c.Debug
}

// Policy はプリセットと上書きから補正方針を組み立てる。
func (c *Config) Policy() (retarget.Policy, error) {
	if c == nil {
		return retarget.DefaultPolicy(), nil
	}
	preset := retarget.PRESET_TUNED
	if c.Preset != nil {
		preset = retarget.PresetName(*c.Preset)
	}
	policy, err := retarget.NewPolicy(preset)
	if err != nil {
		return retarget.Policy{}, err
	}
	if c.RootMotion != nil {
		rootMotion, err := retarget.ParseRootMotionPolicy(*c.RootMotion)
		if err != nil {
			return retarget.Policy{}, err
		}
		policy.RootMotion = rootMotion
	}
	if c.SwapLegSides != nil {
		policy.SwapLegSides = *c.SwapLegSides
	}
	for name, override := range c.Corrections {
		class, err := retarget.ParseBoneClass(name)
		if err != nil {
			return retarget.Policy{}, err
		}
		rule, err := override.apply(policy.RuleFor(class))
		if err != nil {
			return retarget.Policy{}, fmt.Errorf("補正規則 %s: %w", name, err)
		}
		policy.Table[class] = rule
	}
	return policy, nil
}

// apply は既存規則へ上書きを適用した規則を返す。
func (o CorrectionOverride) apply(rule retarget.CorrectionRule) (retarget.CorrectionRule, error) {
	if o.Order != nil {
		order, err := retarget.ParseMultiplyOrder(*o.Order)
		if err != nil {
			return rule, err
		}
		rule.Order = order
	}
	if o.Axis != nil {
		if len(o.Axis) != 3 {
			return rule, fmt.Errorf("回転軸は3要素で指定してください: %v", o.Axis)
		}
		axis := mgl64.Vec3{o.Axis[0], o.Axis[1], o.Axis[2]}
		if axis.Len() == 0 {
			return rule, fmt.Errorf("回転軸が零ベクトルです")
		}
		rule.Offset.Axis = axis
	}
	if o.Angle != nil {
		angle, err := EvaluateExpression(*o.Angle)
		if err != nil {
			return rule, err
		}
		rule.Offset.AngleDegrees = angle
	}
	if o.MirrorBySide != nil {
		rule.MirrorBySide = *o.MirrorBySide
	}
	if o.Flip != nil {
		rule.Flip = *o.Flip
	}
	if o.PositionScale != nil {
		scale, err := EvaluateExpression(*o.PositionScale)
		if err != nil {
			return rule, err
		}
		rule.PositionScale = scale
	}
	return rule, nil
}

// BoneNameMapping は既定の対応表へ追加分を反映した対応表を返す。
func (c *Config) BoneNameMapping() (humanoid.BoneNameMapping, error) {
	mapping := humanoid.DefaultBoneNameMapping()
	if c == nil {
		return mapping, nil
	}
	for source, bone := range c.BoneNames {
		mapping[strings.TrimSpace(source)] = humanoid.BoneName(strings.TrimSpace(bone))
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	return mapping, nil
}

// RetargetOptions はリターゲットオプションを組み立てる。
func (c *Config) RetargetOptions() (minteractor.RetargetOptions, error) {
	policy, err := c.Policy()
	if err != nil {
		return minteractor.RetargetOptions{}, err
	}
	boneNames, err := c.BoneNameMapping()
	if err != nil {
		return minteractor.RetargetOptions{}, err
	}
	return minteractor.RetargetOptions{
		ClipName:  c.GetClipName(),
		Policy:    policy,
		BoneNames: boneNames,
	}, nil
}

// GazeConfig は視点算出設定を返す。
func (c *Config) GazeConfig() (tracking.GazeConfig, error) {
	gaze := tracking.DefaultGazeConfig()
	if c == nil || len(c.Gaze) == 0 {
		return gaze, nil
	}
	if err := json.Unmarshal(c.Gaze, &gaze); err != nil {
		return tracking.GazeConfig{}, fmt.Errorf("gaze の解析に失敗しました: %w", err)
	}
	if gaze.Smoothing <= 0 || gaze.Smoothing > 1 {
		return tracking.GazeConfig{}, fmt.Errorf("gaze.smoothing は 0 より大きく 1 以下で指定してください: %v", gaze.Smoothing)
	}
	if gaze.BlinkThreshold < 0 {
		return tracking.GazeConfig{}, fmt.Errorf("gaze.blink_threshold は 0 以上で指定してください: %v", gaze.BlinkThreshold)
	}
	if gaze.MonitorWidth <= 0 {
		return tracking.GazeConfig{}, fmt.Errorf("gaze.monitor_width は正の値で指定してください: %v", gaze.MonitorWidth)
	}
	return gaze, nil
}

// SceneConfig は表示シーン設定を返す。
func (c *Config) SceneConfig() (minteractor.SceneConfig, error) {
	scene := minteractor.DefaultSceneConfig()
	if c == nil || len(c.Scene) == 0 {
		return scene, nil
	}
	if err := json.Unmarshal(c.Scene, &scene); err != nil {
		return minteractor.SceneConfig{}, fmt.Errorf("scene の解析に失敗しました: %w", err)
	}
	if scene.FovDegrees <= 0 || scene.FovDegrees >= 180 {
		return minteractor.SceneConfig{}, fmt.Errorf("scene.fov_degrees は 0 から 180 の間で指定してください: %v", scene.FovDegrees)
	}
	if scene.Near <= 0 || scene.Far <= scene.Near {
		return minteractor.SceneConfig{}, fmt.Errorf("scene.near/far が不正です: near=%v far=%v", scene.Near, scene.Far)
	}
	return scene, nil
}

// expressionParameters は式で参照できる定数。
var expressionParameters = map[string]any{
	"pi":  math.Pi,
	"deg": 180.0 / math.Pi,
}

// EvaluateExpression は数値式を評価する。
func EvaluateExpression(expression string) (float64, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return 0, fmt.Errorf("式が空です")
	}
	evaluable, err := govaluate.NewEvaluableExpression(trimmed)
	if err != nil {
		return 0, fmt.Errorf("式の解析に失敗しました: %s: %w", trimmed, err)
	}
	result, err := evaluable.Evaluate(expressionParameters)
	if err != nil {
		return 0, fmt.Errorf("式の評価に失敗しました: %s: %w", trimmed, err)
	}
	value, ok := result.(float64)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("式の結果が数値ではありません: %s", trimmed)
	}
	return value, nil
}
