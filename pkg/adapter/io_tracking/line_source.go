// 指示: miu200521358
package io_tracking

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
)

// maxLineBytes は1行あたりの上限。478点の顔を複数含む行を想定する。
const maxLineBytes = 4 * 1024 * 1024

// LineSource は1行1フレームのJSONLを読む入力元。
type LineSource struct {
	reader   io.Reader
	interval time.Duration
}

// NewLineSource はリーダーからの入力元を生成する。
func NewLineSource(reader io.Reader, interval time.Duration) *LineSource {
	return &LineSource{reader: reader, interval: interval}
}

// Run は入力が尽きるか ctx が終了するまでフレームを流す。
// 解析できない行は警告ログを出して読み飛ばす。
func (s *LineSource) Run(ctx context.Context, sink func(tracking.FaceFrame)) error {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var ticker *time.Ticker
	if s.interval > 0 {
		ticker = time.NewTicker(s.interval)
		defer ticker.Stop()
	}

	lineNo := 0
	frames := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame, err := DecodeFrame(line)
		if err != nil {
			logTrackingWarn("ランドマーク行を読み飛ばします: line=%d err=%v", lineNo, err)
			continue
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		sink(frame)
		frames++
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return io_common.NewIoParseFailed("ランドマーク入力の読込に失敗しました: line=%d", err, lineNo+1)
	}
	logTrackingDebug("ランドマーク入力終了: lines=%d frames=%d", lineNo, frames)
	return nil
}

// FileSource はJSONLファイルを再生する入力元。
type FileSource struct {
	path     string
	interval time.Duration
}

// NewFileSource はファイル入力元を生成する。
func NewFileSource(path string, interval time.Duration) *FileSource {
	return &FileSource{path: path, interval: interval}
}

// Run はファイルを開いて1回再生する。ctx 終了時はファイルを閉じて読込を止める。
func (s *FileSource) Run(ctx context.Context, sink func(tracking.FaceFrame)) error {
	file, err := os.Open(s.path)
	if err != nil {
		return io_common.NewIoFileNotFound(s.path, err)
	}
	defer file.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = file.Close()
	})
	defer stop()

	logTrackingInfo("ランドマークファイル再生開始: file=%s", s.path)
	if err := NewLineSource(file, s.interval).Run(ctx, sink); err != nil {
		return fmt.Errorf("ランドマークファイル再生に失敗しました: %w", err)
	}
	return nil
}
