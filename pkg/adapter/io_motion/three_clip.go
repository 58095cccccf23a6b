// 指示: miu200521358
package io_motion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

// three.js の AnimationClip.toJSON 形式で使う定数。
const (
	threeTrackTypeVector     = "vector"
	threeTrackTypeQuaternion = "quaternion"
	threeTrackTypeNumber     = "number"
	threeNormalBlendMode     = 2500
	threeMaxClipFileSize     = 512 << 20
)

// threeClip は three.js AnimationClip のJSON表現。
type threeClip struct {
	Name      string       `json:"name"`
	Duration  float64      `json:"duration"`
	Tracks    []threeTrack `json:"tracks"`
	UUID      string       `json:"uuid,omitempty"`
	BlendMode int          `json:"blendMode,omitempty"`
}

// threeTrack は three.js KeyframeTrack のJSON表現。
type threeTrack struct {
	Name   string    `json:"name"`
	Type   string    `json:"type,omitempty"`
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
}

// readThreeClipFile はthree.jsクリップJSONを読み込む。
func readThreeClipFile(path string) (*motion.Clip, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, io_common.NewIoFileNotFound(path, err)
		}
		return nil, io_common.NewIoParseFailed("クリップファイル情報の取得に失敗しました", err)
	}
	if info.Size() > threeMaxClipFileSize {
		return nil, io_common.NewIoFormatNotSupported("クリップファイルが大きすぎます: %d bytes", nil, info.Size())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, io_common.NewIoParseFailed("クリップファイルの読み取りに失敗しました", err)
	}
	return DecodeThreeClip(b)
}

// DecodeThreeClip はthree.jsクリップJSONをクリップへ変換する。
// duration が負の場合はトラックの最終キー時刻から求める。
func DecodeThreeClip(b []byte) (*motion.Clip, error) {
	raw := threeClip{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, io_common.NewIoParseFailed("クリップJSONの解析に失敗しました", err)
	}
	if raw.Tracks == nil {
		return nil, io_common.NewIoFormatNotSupported("tracks が存在しません", nil)
	}
	tracks := make([]*motion.Track, 0, len(raw.Tracks))
	lastKey := 0.0
	for _, t := range raw.Tracks {
		track := motion.NewTrack(t.Name, t.Times, t.Values)
		if n := len(t.Times); n > 0 && t.Times[n-1] > lastKey {
			lastKey = t.Times[n-1]
		}
		tracks = append(tracks, track)
	}
	duration := raw.Duration
	if duration < 0 {
		duration = lastKey
	}
	return motion.NewClip(raw.Name, duration, tracks), nil
}

// EncodeThreeClip はクリップをthree.jsクリップJSONへ変換する。
func EncodeThreeClip(clip *motion.Clip) ([]byte, error) {
	if clip == nil {
		return nil, io_common.NewIoFormatNotSupported("出力するクリップがありません", nil)
	}
	raw := threeClip{
		Name:      clip.Name,
		Duration:  clip.Duration,
		Tracks:    make([]threeTrack, 0, len(clip.Tracks)),
		UUID:      strings.ToUpper(uuid.NewString()),
		BlendMode: threeNormalBlendMode,
	}
	for _, track := range clip.Tracks {
		times := track.Times
		if times == nil {
			times = []float64{}
		}
		values := track.Values
		if values == nil {
			values = []float64{}
		}
		raw.Tracks = append(raw.Tracks, threeTrack{
			Name:   track.Name,
			Type:   threeTrackType(track.Property),
			Times:  times,
			Values: values,
		})
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, io_common.NewIoParseFailed("クリップJSONの生成に失敗しました", err)
	}
	return b, nil
}

// threeTrackType はプロパティに対応するthree.jsトラック型を返す。
func threeTrackType(prop motion.TrackProperty) string {
	switch prop {
	case motion.TRACK_PROPERTY_QUATERNION:
		return threeTrackTypeQuaternion
	case motion.TRACK_PROPERTY_POSITION, motion.TRACK_PROPERTY_SCALE:
		return threeTrackTypeVector
	}
	return threeTrackTypeNumber
}

// ThreeClipWriter はクリップをthree.jsクリップJSONとして保存する。
type ThreeClipWriter struct{}

// NewThreeClipWriter はThreeClipWriterを生成する。
func NewThreeClipWriter() *ThreeClipWriter {
	return &ThreeClipWriter{}
}

// Save はクリップを保存する。出力先ディレクトリは作成済みであること。
func (w *ThreeClipWriter) Save(path string, clip *motion.Clip) error {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return io_common.NewIoExtInvalid(path, nil)
	}
	b, err := EncodeThreeClip(clip)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return io_common.NewIoSaveFailed(path, err)
	}
	logMotionInfo("クリップ保存完了: file=%s tracks=%d", filepath.Base(path), len(clip.Tracks))
	return nil
}
