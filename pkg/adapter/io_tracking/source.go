// 指示: miu200521358
// Package io_tracking は顔ランドマークフレームの入力元を提供する。
package io_tracking

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
	"github.com/miu200521358/mu_vrm_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/port/moutput"
)

const (
	// StdinSpec は標準入力を表す入力指定。
	StdinSpec = "-"
	// udpScheme はUDP入力指定の接頭辞。
	udpScheme = "udp://"
)

// Open は入力指定から入力元を生成する。
// "-" は標準入力、"udp://host:port" はUDP受信、それ以外はJSONLファイルとして扱う。
// interval はファイル再生時のフレーム間隔で、0の場合は待たない。
func Open(spec string, interval time.Duration) (moutput.ILandmarkSource, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == StdinSpec:
		return NewLineSource(os.Stdin, 0), nil
	case strings.HasPrefix(strings.ToLower(spec), udpScheme):
		return NewUDPSource(spec[len(udpScheme):])
	}
	if !CanLoad(spec) {
		return nil, io_common.NewIoExtInvalid(spec, nil)
	}
	if _, err := os.Stat(spec); err != nil {
		return nil, io_common.NewIoFileNotFound(spec, err)
	}
	return NewFileSource(spec, interval), nil
}

// CanLoad はランドマークファイルの拡張子を判定する。
func CanLoad(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return true
	}
	return false
}

// DecodeFrame はJSON1件を顔フレームへ変換する。
func DecodeFrame(b []byte) (tracking.FaceFrame, error) {
	var frame tracking.FaceFrame
	if err := json.Unmarshal(b, &frame); err != nil {
		return tracking.FaceFrame{}, io_common.NewIoParseFailed("ランドマークフレームの解析に失敗しました", err)
	}
	return frame, nil
}

func logTrackingInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

func logTrackingWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}

func logTrackingDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}
