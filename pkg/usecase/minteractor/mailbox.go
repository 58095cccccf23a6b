// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/port/moutput"
)

// FrameMailbox は最新の顔フレームだけを保持する容量1のチャネル。
// 受信側が追いつかない場合は古いフレームを捨てる。
type FrameMailbox struct {
	frames chan tracking.FaceFrame
}

// NewFrameMailbox はメールボックスを生成する。
func NewFrameMailbox() *FrameMailbox {
	return &FrameMailbox{frames: make(chan tracking.FaceFrame, 1)}
}

// Put はフレームを投函する。未受信のフレームがあれば置き換える。
func (m *FrameMailbox) Put(frame tracking.FaceFrame) {
	for {
		select {
		case m.frames <- frame:
			return
		default:
		}
		select {
		case <-m.frames:
		default:
		}
	}
}

// C は受信用チャネルを返す。
func (m *FrameMailbox) C() <-chan tracking.FaceFrame {
	return m.frames
}

// TryTake は待たずにフレームを1件取り出す。
func (m *FrameMailbox) TryTake() (tracking.FaceFrame, bool) {
	select {
	case frame := <-m.frames:
		return frame, true
	default:
		return tracking.FaceFrame{}, false
	}
}

// StartLandmarkSource はランドマーク供給を別goroutineで動かし、終了時のエラーを1件返すチャネルを返す。
func StartLandmarkSource(ctx context.Context, source moutput.ILandmarkSource, mailbox *FrameMailbox) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := source.Run(ctx, mailbox.Put)
		if err != nil && ctx.Err() == nil {
			logRetargetError("ランドマーク入力が停止しました: %v", err)
			done <- &LandmarkError{Err: err}
		}
	}()
	return done
}

// LandmarkError は顔ランドマーク入力の停止を表す。
type LandmarkError struct {
	Err error
}

// Error はエラーメッセージを返す。
func (e *LandmarkError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("顔ランドマーク入力が停止しました: %v", e.Err)
}

// Unwrap は元エラーを返す。
func (e *LandmarkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
