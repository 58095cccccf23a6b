// 指示: miu200521358
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_model/vrm"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_vrm_retarget/pkg/infra/config"
	"github.com/miu200521358/mu_vrm_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/minteractor"
)

// options はCLI引数を保持する。
type options struct {
	avatarPath    string
	motionPath    string
	outputPath    string
	configPath    string
	clipName      string
	animationName string
	debug         bool
}

// main はモーションをVRMアバターへリターゲットしてthree.jsクリップJSONを出力する。
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run はCLI処理全体を実行する。
func run(args []string, out io.Writer, errOut io.Writer) error {
	opts, err := parseOptions(args, errOut)
	if err != nil {
		return err
	}

	cfg := config.EmptyConfig()
	if opts.configPath != "" {
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return fmt.Errorf("%s: %w", messages.MessageConfigFailed, err)
		}
	}
	logging.SetDebug(opts.debug || cfg.GetDebug())

	retargetOptions, err := cfg.RetargetOptions()
	if err != nil {
		return fmt.Errorf("%s: %w", messages.MessageConfigFailed, err)
	}
	if opts.clipName != "" {
		retargetOptions.ClipName = opts.clipName
	}

	outputPath, err := resolveOutputPath(opts.outputPath)
	if err != nil {
		return err
	}
	if err := ensureOutputDir(outputPath); err != nil {
		return err
	}

	avatarRepository := vrm.NewVrmRepository()
	avatarRepository.SetLoadProgressReporter(func(event vrm.LoadProgressEvent) {
		logging.DefaultLogger().Debug(
			"VRM読込進捗: type=%s nodes=%d humanBones=%d expressions=%d",
			event.Type, event.NodeCount, event.HumanBoneCount, event.ExpressionCount,
		)
	})
	motionRepository := io_motion.NewMotionRepository()
	motionRepository.AnimationName = opts.animationName

	usecase := minteractor.NewRetargetUsecase(minteractor.RetargetUsecaseDeps{
		AvatarReader: avatarRepository,
		MotionReader: motionRepository,
		ClipWriter:   io_motion.NewThreeClipWriter(),
	})

	fmt.Fprintf(out, "[mu_vrm_retarget] 読み込み開始: %s / %s\n", opts.avatarPath, opts.motionPath)
	result, err := usecase.Convert(minteractor.ConvertRequest{
		AvatarPath: opts.avatarPath,
		MotionPath: opts.motionPath,
		OutputPath: outputPath,
		Options:    retargetOptions,
	})
	if err != nil {
		return fmt.Errorf("%s: %s", messages.MessageConvertFailed, messages.Banner(err))
	}
	printReport(out, result)
	if result.Clip == nil {
		return fmt.Errorf("%s", messages.MessageRetargetEmpty)
	}
	fmt.Fprintf(out, "[mu_vrm_retarget] "+messages.LogConvertSuccess+"\n", result.OutputPath)
	return nil
}

// printReport は警告とリターゲット集計を表示する。
func printReport(out io.Writer, result *minteractor.ConvertResult) {
	if result.Avatar != nil {
		for _, warningID := range result.Avatar.Warnings {
			fmt.Fprintf(out, "[mu_vrm_retarget] "+messages.LogAvatarWarning+"\n", messages.AvatarWarningMessage(warningID))
		}
	}
	report := result.Report
	fmt.Fprintf(out, "[mu_vrm_retarget] "+messages.LogRetargetSummary+"\n", report.Retargeted, report.SourceTracks)
	for _, reason := range []minteractor.SkipReason{
		minteractor.SKIP_REASON_EMPTY_NAME,
		minteractor.SKIP_REASON_UNRESOLVED_BONE,
		minteractor.SKIP_REASON_UNSUPPORTED_PROPERTY,
		minteractor.SKIP_REASON_MISSING_DESTINATION_NODE,
	} {
		if count := report.CountByReason(reason); count > 0 {
			fmt.Fprintf(out, "[mu_vrm_retarget] "+messages.LogRetargetSkipped+"\n", reason, count)
		}
	}
}

// parseOptions はCLI引数を解析する。位置引数は avatar motion [out] の順。
func parseOptions(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("mu_vrm_retarget", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintln(errOut, messages.HelpUsage)
		fs.PrintDefaults()
	}

	avatarPath := fs.String("vrm", "", "入力VRMファイルパス")
	motionPath := fs.String("motion", "", "入力モーションファイルパス(.glb/.gltf/.json)")
	outputPath := fs.String("out", "", "出力クリップJSONパス")
	configPath := fs.String("config", "", "設定JSONファイルパス")
	clipName := fs.String("name", "", "出力クリップ名")
	animationName := fs.String("animation", "", "glTF内のアニメーション名")
	debug := fs.Bool("debug", false, "デバッグログを出力する")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	positionals := fs.Args()
	if *avatarPath == "" && len(positionals) > 0 {
		*avatarPath = positionals[0]
	}
	if *motionPath == "" && len(positionals) > 1 {
		*motionPath = positionals[1]
	}
	if *outputPath == "" && len(positionals) > 2 {
		*outputPath = positionals[2]
	}
	if *avatarPath == "" {
		return options{}, fmt.Errorf("%s (-vrm)", messages.MessageInputRequired)
	}
	if *motionPath == "" {
		return options{}, fmt.Errorf("%s (-motion)", messages.MessageMotionRequired)
	}
	if !vrm.NewVrmRepository().CanLoad(*avatarPath) {
		return options{}, fmt.Errorf("入力拡張子が .vrm ではありません: %s", *avatarPath)
	}
	if !io_motion.NewMotionRepository().CanLoad(*motionPath) {
		return options{}, fmt.Errorf("モーション拡張子が未対応です: %s", *motionPath)
	}

	return options{
		avatarPath:    *avatarPath,
		motionPath:    *motionPath,
		outputPath:    *outputPath,
		configPath:    *configPath,
		clipName:      strings.TrimSpace(*clipName),
		animationName: strings.TrimSpace(*animationName),
		debug:         *debug,
	}, nil
}

// resolveOutputPath は出力パスを検証する。空の場合はモーションの隣へ既定名で出力する。
func resolveOutputPath(outputPath string) (string, error) {
	trimmed := strings.TrimSpace(outputPath)
	if trimmed == "" {
		return "", nil
	}
	if !strings.EqualFold(filepath.Ext(trimmed), ".json") {
		return "", fmt.Errorf("出力拡張子が .json ではありません: %s", trimmed)
	}
	return trimmed, nil
}

// ensureOutputDir は出力先ディレクトリを作成する。
func ensureOutputDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if outputPath == "" || dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("出力先ディレクトリの作成に失敗しました: %w", err)
	}
	return nil
}
