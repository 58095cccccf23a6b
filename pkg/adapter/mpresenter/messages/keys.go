// 指示: miu200521358
// Package messages は表示とログに使うメッセージキーを提供する。
package messages

// メッセージキー一覧。
const (
	HelpUsageTitle = "使い方"
	HelpUsage      = "使い方: -vrm avatar.vrm -motion dance.glb [-out out.json] [-config cfg.json] [-name FBXDance] [-debug]"
	HelpViewer     = "使い方: -vrm avatar.vrm [-motion dance.glb] [-landmarks face.jsonl|-|udp://:5005] [-config cfg.json] [-debug]"

	LabelFps        = "FPS"
	LabelBlink      = "瞬き"
	LabelGaze       = "視点"
	LabelClip       = "クリップ"
	LabelTime       = "再生位置"
	LabelExpression = "表情"

	MessageAvatarLoadFailed = "アバター読込失敗"
	MessageMotionLoadFailed = "モーション読込失敗"
	MessageLandmarkFailed   = "顔ランドマーク入力失敗"
	MessageSaveFailed       = "保存失敗"
	MessageConvertFailed    = "変換失敗"
	MessageConfigFailed     = "設定読込失敗"
	MessageInputRequired    = "VRMファイルを指定してください"
	MessageMotionRequired   = "モーションファイルを指定してください"
	MessageRetargetEmpty    = "リターゲット対象トラックがありません"
	MessageKindNotFound     = "ファイルが見つかりません"
	MessageKindExtInvalid   = "拡張子が未対応です"
	MessageKindParseFailed  = "ファイルを解析できません"
	MessageKindNotSupported = "形式が未対応です"
	MessageKindCanceled     = "読込を中断しました"
	MessageKindUnknown      = "不明なエラー"

	WarningHipsMissing            = "hipsボーンが無いためルート移動を反映できません"
	WarningHumanBoneNodeInvalid   = "humanBoneのノード指定が不正なボーンを無視しました"
	WarningBlinkExpressionMissing = "瞬き表情が無いため瞬きを反映できません"
	WarningDuplicateNodeName      = "同名ノードがあるため先頭ノードを使います"

	LogAvatarLoadSuccess = "アバター読込成功: %s"
	LogMotionLoadSuccess = "モーション読込成功: %s"
	LogConvertSuccess    = "クリップ保存成功: %s"
	LogRetargetSummary   = "リターゲット結果: %d/%d トラック"
	LogRetargetSkipped   = "スキップ: %s %d件"
	LogAvatarWarning     = "アバター警告: %s"
	LogLandmarkStarted   = "顔ランドマーク入力開始: %s"
)
