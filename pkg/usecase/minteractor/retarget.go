// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/retarget"
)

// DefaultClipName はリターゲット結果クリップの既定名。
const DefaultClipName = "FBXDance"

// Skeleton は正規化ボーン名から実ノードを引く契約を表す。
type Skeleton interface {
	NormalizedBoneNode(name humanoid.BoneName) (*avatar.Node, bool)
}

// SkipReason はトラックを出力しなかった理由。
type SkipReason string

const (
	// SKIP_REASON_EMPTY_NAME はトラック名が空。
	SKIP_REASON_EMPTY_NAME SkipReason = "empty_name"
	// SKIP_REASON_UNRESOLVED_BONE は骨名が対応表に無い。
	SKIP_REASON_UNRESOLVED_BONE SkipReason = "unresolved_bone"
	// SKIP_REASON_UNSUPPORTED_PROPERTY は位置/回転以外のプロパティ。
	SKIP_REASON_UNSUPPORTED_PROPERTY SkipReason = "unsupported_property"
	// SKIP_REASON_MISSING_DESTINATION_NODE はアバター側に対応ノードが無い。
	SKIP_REASON_MISSING_DESTINATION_NODE SkipReason = "missing_destination_node"
)

// SkippedTrack は出力しなかったトラック1件。
type SkippedTrack struct {
	Index  int
	Name   string
	Reason SkipReason
}

// RetargetReport はリターゲット結果の集計。
type RetargetReport struct {
	SourceTracks int
	Retargeted   int
	Skipped      []SkippedTrack
}

// CountByReason は理由毎のスキップ数を返す。
func (r RetargetReport) CountByReason(reason SkipReason) int {
	count := 0
	for _, skipped := range r.Skipped {
		if skipped.Reason == reason {
			count++
		}
	}
	return count
}

// RetargetOptions はリターゲット時のオプション。
type RetargetOptions struct {
	ClipName  string
	Policy    retarget.Policy
	BoneNames humanoid.BoneNameMapping
}

// DefaultRetargetOptions は既定オプションを返す。
func DefaultRetargetOptions() RetargetOptions {
	return RetargetOptions{
		ClipName:  DefaultClipName,
		Policy:    retarget.DefaultPolicy(),
		BoneNames: humanoid.DefaultBoneNameMapping(),
	}
}

// RetargetClip は元クリップのトラックをアバターの正規化ボーンへ載せ替えた新しいクリップを返す。
// 対象トラックが1件も無い場合は nil を返し、警告ログを出す。元クリップは変更しない。
func RetargetClip(source *motion.Clip, skeleton Skeleton, options RetargetOptions) (*motion.Clip, RetargetReport, error) {
	report := RetargetReport{}
	if source == nil {
		return nil, report, fmt.Errorf("リターゲット元クリップが未設定です")
	}
	if skeleton == nil {
		return nil, report, fmt.Errorf("リターゲット先スケルトンが未設定です")
	}
	boneNames := options.BoneNames
	if boneNames == nil {
		boneNames = humanoid.DefaultBoneNameMapping()
	}
	if err := boneNames.Validate(); err != nil {
		return nil, report, err
	}
	clipName := options.ClipName
	if clipName == "" {
		clipName = DefaultClipName
	}

	report.SourceTracks = len(source.Tracks)
	tracks := make([]*motion.Track, 0, len(source.Tracks))
	for i, track := range source.Tracks {
		retargeted, reason := retargetTrack(track, skeleton, boneNames, options.Policy)
		if retargeted == nil {
			name := ""
			if track != nil {
				name = track.Name
			}
			report.Skipped = append(report.Skipped, SkippedTrack{Index: i, Name: name, Reason: reason})
			logRetargetDebug("トラックをスキップ: index=%d name=%s reason=%s", i, name, reason)
			continue
		}
		tracks = append(tracks, retargeted)
	}
	report.Retargeted = len(tracks)

	if len(tracks) == 0 {
		logRetargetWarn("リターゲット対象トラックがありません: clip=%s tracks=%d", source.Name, len(source.Tracks))
		return nil, report, nil
	}
	logRetargetInfo("リターゲット完了: clip=%s tracks=%d/%d", clipName, len(tracks), len(source.Tracks))
	return motion.NewClip(clipName, source.Duration, tracks), report, nil
}

// retargetTrack はトラック1件を変換する。出力しない場合は理由を返す。
func retargetTrack(
	track *motion.Track,
	skeleton Skeleton,
	boneNames humanoid.BoneNameMapping,
	policy retarget.Policy,
) (*motion.Track, SkipReason) {
	if track == nil || track.Name == "" {
		return nil, SKIP_REASON_EMPTY_NAME
	}
	_, prop := motion.SplitTrackName(track.Name)
	boneName, ok := boneNames.ResolveBoneName(track.Name)
	if !ok {
		return nil, SKIP_REASON_UNRESOLVED_BONE
	}
	property := motion.TrackProperty(prop)
	if !property.IsRetargetable() {
		return nil, SKIP_REASON_UNSUPPORTED_PROPERTY
	}
	if policy.SwapLegSides && retarget.ClassifyBone(boneName).IsLeg() {
		boneName = boneName.Mirrored()
	}
	node, ok := skeleton.NormalizedBoneNode(boneName)
	if !ok || node == nil || node.Name == "" {
		return nil, SKIP_REASON_MISSING_DESTINATION_NODE
	}

	cloned := &motion.Track{}
	if err := deepcopy.Copy(cloned, *track); err != nil {
		logRetargetWarn("トラックの複製に失敗しました: name=%s err=%v", track.Name, err)
		cloned = &motion.Track{Times: append([]float64(nil), track.Times...)}
	}
	cloned.Name = motion.JoinTrackName(node.Name, property)
	cloned.Property = property
	cloned.Values = retarget.CorrectTrackValues(boneName, property, track.Values, policy)
	return cloned, ""
}
