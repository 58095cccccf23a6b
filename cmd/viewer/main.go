// 指示: miu200521358
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_model/vrm"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_tracking"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_vrm_retarget/pkg/infra/config"
	"github.com/miu200521358/mu_vrm_retarget/pkg/infra/controller/viewer"
	"github.com/miu200521358/mu_vrm_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/minteractor"
)

// landmarkReplayInterval はランドマークファイル再生時のフレーム間隔。
const landmarkReplayInterval = time.Second / 30

// options はビューア引数を保持する。
type options struct {
	avatarPath   string
	motionPath   string
	landmarkSpec string
	configPath   string
	debug        bool
}

// main はアバターを表示し、顔ランドマークに合わせて視点と瞬きを動かす。
func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run はビューアを起動し、ウィンドウが閉じるまでブロックする。
func run(args []string, errOut io.Writer) error {
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
		return err
	}
	gazeConfig, err := cfg.GazeConfig()
	if err != nil {
		return err
	}
	sceneConfig, err := cfg.SceneConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	usecase := minteractor.NewRetargetUsecase(minteractor.RetargetUsecaseDeps{
		AvatarReader: vrm.NewVrmRepository(),
		MotionReader: io_motion.NewMotionRepository(),
	})
	session := minteractor.NewSession(sceneConfig, gazeConfig, retargetOptions)
	session.SetViewport(viewer.DefaultWidth, viewer.DefaultHeight)
	mailbox := minteractor.NewFrameMailbox()
	loop := minteractor.NewFrameLoop(session, mailbox)

	loop.WatchAvatar(usecase.LoadAvatarAsync(ctx, opts.avatarPath))
	if opts.motionPath != "" {
		loop.WatchMotion(usecase.LoadMotionAsync(ctx, opts.motionPath))
	}
	if opts.landmarkSpec != "" {
		source, err := io_tracking.Open(opts.landmarkSpec, landmarkReplayInterval)
		if err != nil {
			// 入力を開けなくても表示は続ける。
			session.ReportError(&minteractor.LandmarkError{Err: err})
		} else {
			logging.DefaultLogger().Info(messages.LogLandmarkStarted, opts.landmarkSpec)
			loop.WatchLandmarks(minteractor.StartLandmarkSource(ctx, source, mailbox))
		}
	}

	return viewer.NewViewer(loop).Run("mu_vrm_retarget")
}

// parseOptions はビューア引数を解析する。
func parseOptions(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("mu_vrm_retarget_viewer", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintln(errOut, messages.HelpViewer)
		fs.PrintDefaults()
	}

	avatarPath := fs.String("vrm", "", "表示するVRMファイルパス")
	motionPath := fs.String("motion", "", "再生するモーションファイルパス")
	landmarkSpec := fs.String("landmarks", "", "顔ランドマーク入力(file.jsonl, -, udp://:5005)")
	configPath := fs.String("config", "", "設定JSONファイルパス")
	debug := fs.Bool("debug", false, "デバッグログを出力する")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *avatarPath == "" && fs.NArg() > 0 {
		*avatarPath = fs.Arg(0)
	}
	if strings.TrimSpace(*avatarPath) == "" {
		return options{}, fmt.Errorf("%s (-vrm)", messages.MessageInputRequired)
	}
	return options{
		avatarPath:   *avatarPath,
		motionPath:   strings.TrimSpace(*motionPath),
		landmarkSpec: strings.TrimSpace(*landmarkSpec),
		configPath:   *configPath,
		debug:        *debug,
	}, nil
}
