// 指示: miu200521358
package moutput

import (
	"context"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
)

// IAvatarReader はアバター読み込み契約を表す。
type IAvatarReader interface {
	CanLoad(path string) bool
	Load(path string) (*avatar.Avatar, error)
}

// IMotionReader はモーション読み込み契約を表す。
type IMotionReader interface {
	CanLoad(path string) bool
	Load(path string) (*motion.Clip, error)
}

// IClipWriter はクリップ書き込み契約を表す。
type IClipWriter interface {
	Save(path string, clip *motion.Clip) error
}

// ILandmarkSource は顔ランドマークフレームの供給契約を表す。
// Run は ctx が終了するか入力が尽きるまでブロックし、フレーム毎に sink を呼ぶ。
type ILandmarkSource interface {
	Run(ctx context.Context, sink func(tracking.FaceFrame)) error
}
