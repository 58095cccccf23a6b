// 指示: miu200521358
// Package humanoid は正規化ヒューマノイドのボーン名と名前解決を提供する。
package humanoid

import (
	"fmt"
	"sort"
	"strings"
)

// BoneName は正規化ヒューマノイドのボーン名(VRM humanBones のキー)を表す。
type BoneName string

// 正規化ヒューマノイドのボーン名一覧。
const (
	HIPS            BoneName = "hips"
	SPINE           BoneName = "spine"
	CHEST           BoneName = "chest"
	UPPER_CHEST     BoneName = "upperChest"
	NECK            BoneName = "neck"
	HEAD            BoneName = "head"
	LEFT_EYE        BoneName = "leftEye"
	RIGHT_EYE       BoneName = "rightEye"
	JAW             BoneName = "jaw"
	LEFT_SHOULDER   BoneName = "leftShoulder"
	LEFT_UPPER_ARM  BoneName = "leftUpperArm"
	LEFT_LOWER_ARM  BoneName = "leftLowerArm"
	LEFT_HAND       BoneName = "leftHand"
	RIGHT_SHOULDER  BoneName = "rightShoulder"
	RIGHT_UPPER_ARM BoneName = "rightUpperArm"
	RIGHT_LOWER_ARM BoneName = "rightLowerArm"
	RIGHT_HAND      BoneName = "rightHand"
	LEFT_UPPER_LEG  BoneName = "leftUpperLeg"
	LEFT_LOWER_LEG  BoneName = "leftLowerLeg"
	LEFT_FOOT       BoneName = "leftFoot"
	LEFT_TOES       BoneName = "leftToes"
	RIGHT_UPPER_LEG BoneName = "rightUpperLeg"
	RIGHT_LOWER_LEG BoneName = "rightLowerLeg"
	RIGHT_FOOT      BoneName = "rightFoot"
	RIGHT_TOES      BoneName = "rightToes"
)

// String はボーン名文字列を返す。
func (b BoneName) String() string {
	return string(b)
}

// IsRoot はルート(hips)かを返す。
func (b BoneName) IsRoot() bool {
	return b == HIPS
}

// BoneNameMapping は元スケルトンのボーン名から正規化ボーン名への対応表。
type BoneNameMapping map[string]BoneName

// AlternatePrefix は接頭辞付き命名規則の共通接頭辞。
const AlternatePrefix = "mixamorig"

// mixamoBoneNames は Mixamo 系の接頭辞あり/なし両方の命名に対応する既定表。
var mixamoBoneNames = BoneNameMapping{
	"mixamorigHips": HIPS, "Hips": HIPS,
	"mixamorigSpine": SPINE, "Spine": SPINE,
	"mixamorigSpine1": CHEST, "Spine1": CHEST,
	"mixamorigSpine2": UPPER_CHEST, "Spine2": UPPER_CHEST,
	"mixamorigNeck": NECK, "Neck": NECK,
	"mixamorigHead": HEAD, "Head": HEAD,
	"mixamorigLeftShoulder": LEFT_SHOULDER, "LeftShoulder": LEFT_SHOULDER,
	"mixamorigLeftArm": LEFT_UPPER_ARM, "LeftArm": LEFT_UPPER_ARM,
	"mixamorigLeftForeArm": LEFT_LOWER_ARM, "LeftForeArm": LEFT_LOWER_ARM,
	"mixamorigLeftHand": LEFT_HAND, "LeftHand": LEFT_HAND,
	"mixamorigRightShoulder": RIGHT_SHOULDER, "RightShoulder": RIGHT_SHOULDER,
	"mixamorigRightArm": RIGHT_UPPER_ARM, "RightArm": RIGHT_UPPER_ARM,
	"mixamorigRightForeArm": RIGHT_LOWER_ARM, "RightForeArm": RIGHT_LOWER_ARM,
	"mixamorigRightHand": RIGHT_HAND, "RightHand": RIGHT_HAND,
	"mixamorigLeftUpLeg": LEFT_UPPER_LEG, "LeftUpLeg": LEFT_UPPER_LEG,
	"mixamorigLeftLeg": LEFT_LOWER_LEG, "LeftLeg": LEFT_LOWER_LEG,
	"mixamorigLeftFoot": LEFT_FOOT, "LeftFoot": LEFT_FOOT,
	"mixamorigLeftToeBase": LEFT_TOES, "LeftToeBase": LEFT_TOES,
	"mixamorigRightUpLeg": RIGHT_UPPER_LEG, "RightUpLeg": RIGHT_UPPER_LEG,
	"mixamorigRightLeg": RIGHT_LOWER_LEG, "RightLeg": RIGHT_LOWER_LEG,
	"mixamorigRightFoot": RIGHT_FOOT, "RightFoot": RIGHT_FOOT,
	"mixamorigRightToeBase": RIGHT_TOES, "RightToeBase": RIGHT_TOES,
}

// DefaultBoneNameMapping は既定の対応表の複製を返す。
func DefaultBoneNameMapping() BoneNameMapping {
	out := make(BoneNameMapping, len(mixamoBoneNames))
	for k, v := range mixamoBoneNames {
		out[k] = v
	}
	return out
}

// Validate は対応表が空でなく、キーと値が空でないことを検証する。
func (m BoneNameMapping) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("ボーン名対応表が空です")
	}
	for _, key := range m.Keys() {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("ボーン名対応表に空のキーがあります")
		}
		if strings.TrimSpace(m[key].String()) == "" {
			return fmt.Errorf("ボーン名対応表の値が空です: %s", key)
		}
	}
	return nil
}

// Keys はキーを昇順で返す。
func (m BoneNameMapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve は骨トークンを正規化ボーン名へ解決する。
// 直接一致しない場合は共通接頭辞を付けて再検索する。
func (m BoneNameMapping) Resolve(token string) (BoneName, bool) {
	if token == "" {
		return "", false
	}
	if name, ok := m[token]; ok {
		return name, true
	}
	if name, ok := m[AlternatePrefix+token]; ok {
		return name, true
	}
	return "", false
}

// ExtractBoneToken はチャンネル名から骨トークンを取り出す。
// 最初の "." より前を取り、名前空間 ("xxx:") を除去する。
func ExtractBoneToken(channelName string) string {
	token := strings.TrimSpace(channelName)
	if idx := strings.Index(token, "."); idx >= 0 {
		token = token[:idx]
	}
	if idx := strings.LastIndex(token, ":"); idx >= 0 {
		token = token[idx+1:]
	}
	return token
}

// ResolveBoneName はチャンネル名を正規化ボーン名へ解決する。
func (m BoneNameMapping) ResolveBoneName(channelName string) (BoneName, bool) {
	return m.Resolve(ExtractBoneToken(channelName))
}

// IsLeft は左側のボーンかを返す。
func (b BoneName) IsLeft() bool {
	return strings.HasPrefix(string(b), "left")
}

// IsRight は右側のボーンかを返す。
func (b BoneName) IsRight() bool {
	return strings.HasPrefix(string(b), "right")
}

// Mirrored は左右を入れ替えたボーン名を返す。左右の無いボーンはそのまま返す。
func (b BoneName) Mirrored() BoneName {
	switch {
	case b.IsLeft():
		return BoneName("right" + strings.TrimPrefix(string(b), "left"))
	case b.IsRight():
		return BoneName("left" + strings.TrimPrefix(string(b), "right"))
	default:
		return b
	}
}
