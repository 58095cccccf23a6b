// 指示: miu200521358
package minteractor

import "github.com/miu200521358/mu_vrm_retarget/pkg/usecase/port/moutput"

// RetargetUsecaseDeps はリターゲットユースケースの依存を表す。
type RetargetUsecaseDeps struct {
	AvatarReader moutput.IAvatarReader
	MotionReader moutput.IMotionReader
	ClipWriter   moutput.IClipWriter
}

// RetargetUsecase はアバター読込・モーション読込・リターゲット・保存をまとめたユースケースを表す。
type RetargetUsecase struct {
	avatarReader moutput.IAvatarReader
	motionReader moutput.IMotionReader
	clipWriter   moutput.IClipWriter
}

// NewRetargetUsecase はリターゲットユースケースを生成する。
func NewRetargetUsecase(deps RetargetUsecaseDeps) *RetargetUsecase {
	return &RetargetUsecase{
		avatarReader: deps.AvatarReader,
		motionReader: deps.MotionReader,
		clipWriter:   deps.ClipWriter,
	}
}
