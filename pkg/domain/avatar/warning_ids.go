// 指示: miu200521358
package avatar

const (
	// WarningHipsMissing はhipsボーン未定義警告。ルート移動を反映できない。
	WarningHipsMissing = "AvatarWarningHipsMissing"
	// WarningHumanBoneNodeInvalid はhumanBoneのnode index不正警告。
	WarningHumanBoneNodeInvalid = "AvatarWarningHumanBoneNodeInvalid"
	// WarningBlinkExpressionMissing は瞬き表情未定義警告。
	WarningBlinkExpressionMissing = "AvatarWarningBlinkExpressionMissing"
	// WarningDuplicateNodeName は同名ノード警告。名前引きでは先頭ノードを使う。
	WarningDuplicateNodeName = "AvatarWarningDuplicateNodeName"
)

// AddWarning は警告IDを重複なく記録する。
func (a *Avatar) AddWarning(warningID string) {
	if a == nil || warningID == "" {
		return
	}
	for _, existing := range a.Warnings {
		if existing == warningID {
			return
		}
	}
	a.Warnings = append(a.Warnings, warningID)
}

// HasWarning は警告IDが記録済みかを返す。
func (a *Avatar) HasWarning(warningID string) bool {
	if a == nil {
		return false
	}
	for _, existing := range a.Warnings {
		if existing == warningID {
			return true
		}
	}
	return false
}
