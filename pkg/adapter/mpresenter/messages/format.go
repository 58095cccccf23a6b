// 指示: miu200521358
package messages

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/minteractor"
)

var loadErrorKindMessages = map[minteractor.LoadErrorKind]string{
	minteractor.LOAD_ERROR_KIND_NOT_FOUND:            MessageKindNotFound,
	minteractor.LOAD_ERROR_KIND_EXT_INVALID:          MessageKindExtInvalid,
	minteractor.LOAD_ERROR_KIND_PARSE_FAILED:         MessageKindParseFailed,
	minteractor.LOAD_ERROR_KIND_FORMAT_NOT_SUPPORTED: MessageKindNotSupported,
	minteractor.LOAD_ERROR_KIND_CANCELED:             MessageKindCanceled,
	minteractor.LOAD_ERROR_KIND_UNKNOWN:              MessageKindUnknown,
}

var avatarWarningMessages = map[string]string{
	avatar.WarningHipsMissing:            WarningHipsMissing,
	avatar.WarningHumanBoneNodeInvalid:   WarningHumanBoneNodeInvalid,
	avatar.WarningBlinkExpressionMissing: WarningBlinkExpressionMissing,
	avatar.WarningDuplicateNodeName:      WarningDuplicateNodeName,
}

// LoadErrorKindMessage は読込失敗分類の表示文言を返す。
func LoadErrorKindMessage(kind minteractor.LoadErrorKind) string {
	if message, ok := loadErrorKindMessages[kind]; ok {
		return message
	}
	return MessageKindUnknown
}

// AvatarWarningMessage は警告IDの表示文言を返す。未登録IDはそのまま返す。
func AvatarWarningMessage(warningID string) string {
	if message, ok := avatarWarningMessages[warningID]; ok {
		return message
	}
	return warningID
}

// Banner はエラーを画面上部に1行で表示する文言へ変換する。
func Banner(err error) string {
	if err == nil {
		return ""
	}
	var loadErr *minteractor.LoadError
	if errors.As(err, &loadErr) {
		title := MessageMotionLoadFailed
		if loadErr.Target == minteractor.LOAD_TARGET_AVATAR {
			title = MessageAvatarLoadFailed
		}
		return fmt.Sprintf("%s: %s (%s)", title, LoadErrorKindMessage(loadErr.Kind), filepath.Base(loadErr.Path))
	}
	var landmarkErr *minteractor.LandmarkError
	if errors.As(err, &landmarkErr) {
		return fmt.Sprintf("%s: %v", MessageLandmarkFailed, landmarkErr.Err)
	}
	return err.Error()
}
