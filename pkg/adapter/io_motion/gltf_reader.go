// 指示: miu200521358
package io_motion

import (
	"strings"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_model/gltf"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

const (
	interpolationCubicSpline = "CUBICSPLINE"
	cubicSplineParts         = 3
)

// gltfTargetPathProperties はglTFのtarget.pathからトラックプロパティへの対応。
var gltfTargetPathProperties = map[string]string{
	"translation": string(motion.TRACK_PROPERTY_POSITION),
	"rotation":    string(motion.TRACK_PROPERTY_QUATERNION),
	"scale":       string(motion.TRACK_PROPERTY_SCALE),
	"weights":     "morphTargetInfluences",
}

// readGltfAnimation はglTF/GLBからアニメーションを1件読み込む。
func readGltfAnimation(path string, animationName string) (*motion.Clip, error) {
	doc, err := gltf.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(doc.Animations) == 0 {
		return nil, io_common.NewIoFormatNotSupported("アニメーションが含まれていません", nil)
	}
	animation, err := selectAnimation(doc.Animations, animationName)
	if err != nil {
		return nil, err
	}
	if len(doc.Animations) > 1 {
		logMotionDebug("複数アニメーションから選択: animation=%s count=%d", animation.Name, len(doc.Animations))
	}

	tracks := make([]*motion.Track, 0, len(animation.Channels))
	duration := 0.0
	for i, channel := range animation.Channels {
		track, err := buildGltfTrack(doc, animation, channel)
		if err != nil {
			return nil, err
		}
		if track == nil {
			logMotionDebug("チャンネルをスキップ: animation=%s channel=%d", animation.Name, i)
			continue
		}
		if n := len(track.Times); n > 0 && track.Times[n-1] > duration {
			duration = track.Times[n-1]
		}
		tracks = append(tracks, track)
	}
	return motion.NewClip(animation.Name, duration, tracks), nil
}

// selectAnimation は名前指定があれば一致するもの、無ければ先頭を返す。
func selectAnimation(animations []gltf.Animation, name string) (gltf.Animation, error) {
	if strings.TrimSpace(name) == "" {
		return animations[0], nil
	}
	for _, animation := range animations {
		if animation.Name == name {
			return animation, nil
		}
	}
	return gltf.Animation{}, io_common.NewIoFormatNotSupported("指定アニメーションが見つかりません: %s", nil, name)
}

// buildGltfTrack はチャンネル1件をトラックへ変換する。対象ノード無しは nil。
func buildGltfTrack(doc *gltf.Document, animation gltf.Animation, channel gltf.AnimationChannel) (*motion.Track, error) {
	if channel.Target.Node == nil || *channel.Target.Node < 0 || *channel.Target.Node >= len(doc.Nodes) {
		return nil, nil
	}
	prop, ok := gltfTargetPathProperties[channel.Target.Path]
	if !ok {
		return nil, nil
	}
	if channel.Sampler < 0 || channel.Sampler >= len(animation.Samplers) {
		return nil, io_common.NewIoParseFailed("animation.sampler index が不正です: %d", nil, channel.Sampler)
	}
	sampler := animation.Samplers[channel.Sampler]
	times, _, err := doc.ReadAccessorFloats(sampler.Input)
	if err != nil {
		return nil, err
	}
	values, components, err := doc.ReadAccessorFloats(sampler.Output)
	if err != nil {
		return nil, err
	}
	if sampler.Interpolation == interpolationCubicSpline {
		values = cubicSplineKeyValues(values, components)
	}
	nodeName := doc.Nodes[*channel.Target.Node].Name
	return motion.NewTrack(nodeName+"."+prop, times, values), nil
}

// cubicSplineKeyValues はCUBICSPLINE出力(入接線,値,出接線)から値だけを取り出す。
func cubicSplineKeyValues(values []float64, components int) []float64 {
	group := components * cubicSplineParts
	if components <= 0 || len(values)%group != 0 {
		return values
	}
	out := make([]float64, 0, len(values)/cubicSplineParts)
	for i := 0; i < len(values); i += group {
		out = append(out, values[i+components:i+2*components]...)
	}
	return out
}
