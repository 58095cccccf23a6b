// 指示: miu200521358
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_model/vrm"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/minteractor"
)

const batchOutputDirMode = 0o755

// batchConfig はバッチリターゲットの実行設定を表す。
type batchConfig struct {
	MotionPath string
	AvatarDir  string
	OutputRoot string
	DryRun     bool
	FailFast   bool
}

// retargetEntry は1アバター分の入力情報を表す。
type retargetEntry struct {
	Index      int
	AvatarPath string
	AvatarName string
	OutputPath string
}

// retargetResult は1アバター分の結果を表す。
type retargetResult struct {
	Entry    retargetEntry
	Status   string
	Duration time.Duration
	Report   minteractor.RetargetReport
	Warnings []string
	Err      error
}

// loadProgressCollector はVRM読込の進捗イベントを収集する。
type loadProgressCollector struct {
	eventCounts  map[vrm.LoadProgressEventType]int
	humanBoneMax int
}

// main はモーション1件を複数VRMへ一括リターゲットする。
func main() {
	os.Exit(run())
}

// run は実行設定を解決して一括リターゲットを実行し、終了コードを返す。
func run() int {
	config, err := parseBatchConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	entries, err := buildRetargetEntries(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "対象アバターの列挙に失敗しました: %v\n", err)
		return 2
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "対象アバターがありません")
		return 2
	}

	results := executeBatchRetarget(config, entries)
	printBatchSummary(results)
	for _, result := range results {
		if result.Status == "failed" {
			return 1
		}
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig() (batchConfig, error) {
	motionPath := flag.String("motion", "", "リターゲット元モーション")
	avatarDir := flag.String("avatars", "", "VRMを含むディレクトリ")
	outputRoot := flag.String("output-root", "output", "出力ルートディレクトリ")
	dryRun := flag.Bool("dry-run", false, "実変換せず、出力先計画のみ表示する")
	failFast := flag.Bool("fail-fast", false, "失敗時に即時終了する")
	flag.Parse()

	if strings.TrimSpace(*motionPath) == "" {
		return batchConfig{}, errors.New("motion が空です")
	}
	if strings.TrimSpace(*avatarDir) == "" {
		return batchConfig{}, errors.New("avatars が空です")
	}
	if strings.TrimSpace(*outputRoot) == "" {
		return batchConfig{}, errors.New("output-root が空です")
	}
	return batchConfig{
		MotionPath: filepath.Clean(*motionPath),
		AvatarDir:  filepath.Clean(*avatarDir),
		OutputRoot: filepath.Clean(*outputRoot),
		DryRun:     *dryRun,
		FailFast:   *failFast,
	}, nil
}

// buildRetargetEntries はディレクトリ内のVRMから対象エントリを生成する。
func buildRetargetEntries(config batchConfig) ([]retargetEntry, error) {
	avatarPaths, err := filepath.Glob(filepath.Join(config.AvatarDir, "*.vrm"))
	if err != nil {
		return nil, err
	}
	sort.Strings(avatarPaths)
	motionName := resolveBaseName(config.MotionPath)
	entries := make([]retargetEntry, 0, len(avatarPaths))
	for i, avatarPath := range avatarPaths {
		avatarName := resolveBaseName(avatarPath)
		fileName := sanitizePathComponent(motionName + "_" + avatarName)
		entries = append(entries, retargetEntry{
			Index:      i + 1,
			AvatarPath: avatarPath,
			AvatarName: avatarName,
			OutputPath: filepath.Join(config.OutputRoot, fmt.Sprintf("%03d_%s.json", i+1, fileName)),
		})
	}
	return entries, nil
}

// executeBatchRetarget はモーションを1回だけ読み込み、全アバターへ順次リターゲットする。
func executeBatchRetarget(config batchConfig, entries []retargetEntry) []retargetResult {
	results := make([]retargetResult, 0, len(entries))
	collector := newLoadProgressCollector()
	avatarRepository := vrm.NewVrmRepository()
	avatarRepository.SetLoadProgressReporter(collector.Report)
	usecase := minteractor.NewRetargetUsecase(minteractor.RetargetUsecaseDeps{
		AvatarReader: avatarRepository,
		MotionReader: io_motion.NewMotionRepository(),
		ClipWriter:   io_motion.NewThreeClipWriter(),
	})

	source, err := usecase.LoadMotion(config.MotionPath)
	if err != nil {
		fmt.Printf("モーション読込失敗: %v\n", err)
		for _, entry := range entries {
			results = append(results, retargetResult{Entry: entry, Status: "failed", Err: err})
		}
		return results
	}
	if !config.DryRun {
		if err := os.MkdirAll(config.OutputRoot, batchOutputDirMode); err != nil {
			fmt.Printf("出力ディレクトリ作成に失敗しました: %v\n", err)
			return results
		}
	}

	total := len(entries)
	for _, entry := range entries {
		fmt.Printf("[%d/%d] リターゲット開始: avatar=%s\n", entry.Index, total, entry.AvatarName)
		result := retargetEntryWith(usecase, config, entry, source)
		results = append(results, result)
		switch result.Status {
		case "succeeded":
			fmt.Printf(
				"[%d/%d] 成功: tracks=%d/%d output=%s elapsed=%s\n",
				entry.Index, total, result.Report.Retargeted, result.Report.SourceTracks,
				entry.OutputPath, result.Duration.Round(time.Millisecond),
			)
		case "empty":
			fmt.Printf("[%d/%d] 対象トラック無し: avatar=%s\n", entry.Index, total, entry.AvatarName)
		case "dry_run":
			fmt.Printf("[%d/%d] DRY-RUN: avatar=%s output=%s\n", entry.Index, total, entry.AvatarPath, entry.OutputPath)
		default:
			fmt.Printf("[%d/%d] 失敗: avatar=%s reason=%v\n", entry.Index, total, entry.AvatarName, result.Err)
			if config.FailFast {
				return results
			}
		}
		if len(result.Warnings) > 0 {
			fmt.Printf("[%d/%d] 警告: %s\n", entry.Index, total, strings.Join(result.Warnings, ","))
		}
	}
	fmt.Printf("VRM読込進捗: %s\n", collector.Summary())
	return results
}

// retargetEntryWith は1アバター分のリターゲットを実行する。
func retargetEntryWith(
	usecase *minteractor.RetargetUsecase,
	config batchConfig,
	entry retargetEntry,
	source *motion.Clip,
) retargetResult {
	result := retargetResult{Entry: entry, Status: "failed"}
	if config.DryRun {
		result.Status = "dry_run"
		return result
	}
	startedAt := time.Now()
	converted, err := usecase.Convert(minteractor.ConvertRequest{
		AvatarPath: entry.AvatarPath,
		Motion:     source,
		OutputPath: entry.OutputPath,
		Options:    minteractor.DefaultRetargetOptions(),
	})
	if err != nil {
		result.Err = err
		return result
	}
	result.Duration = time.Since(startedAt)
	result.Report = converted.Report
	if converted.Avatar != nil {
		result.Warnings = converted.Avatar.Warnings
	}
	if converted.Clip == nil {
		result.Status = "empty"
		return result
	}
	result.Status = "succeeded"
	return result
}

// printBatchSummary は結果の集計を標準出力へ表示する。
func printBatchSummary(results []retargetResult) {
	counts := map[string]int{}
	for _, result := range results {
		counts[result.Status]++
	}
	fmt.Printf(
		"バッチリターゲットサマリ: total=%d succeeded=%d empty=%d failed=%d dry_run=%d\n",
		len(results), counts["succeeded"], counts["empty"], counts["failed"], counts["dry_run"],
	)
}

// resolveBaseName は拡張子を除いたファイル名を返す。
func resolveBaseName(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		return "model"
	}
	return name
}

// sanitizePathComponent はファイル名に使えない文字を置換する。
func sanitizePathComponent(name string) string {
	replaced := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	replaced = strings.Trim(replaced, " .")
	if replaced == "" {
		return "model"
	}
	return replaced
}

// newLoadProgressCollector はVRM読込進捗収集器を生成する。
func newLoadProgressCollector() *loadProgressCollector {
	return &loadProgressCollector{eventCounts: map[vrm.LoadProgressEventType]int{}}
}

// Report はVRM読込の進捗イベントを収集する。
func (collector *loadProgressCollector) Report(event vrm.LoadProgressEvent) {
	collector.eventCounts[event.Type]++
	if event.HumanBoneCount > collector.humanBoneMax {
		collector.humanBoneMax = event.HumanBoneCount
	}
}

// Summary は収集した進捗の要約文字列を返す。
func (collector *loadProgressCollector) Summary() string {
	types := make([]string, 0, len(collector.eventCounts))
	for eventType, count := range collector.eventCounts {
		types = append(types, fmt.Sprintf("%s=%d", eventType, count))
	}
	sort.Strings(types)
	return fmt.Sprintf("humanBoneMax=%d events=%s", collector.humanBoneMax, strings.Join(types, ","))
}
