// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

// FrameLoop は描画goroutine側で非同期読込とランドマークを受け取りセッションへ反映する。
type FrameLoop struct {
	session      *Session
	mailbox      *FrameMailbox
	avatarLoads  <-chan LoadResult[*avatar.Avatar]
	motionLoads  <-chan LoadResult[*motion.Clip]
	landmarkDone <-chan error
}

// NewFrameLoop はフレームループを生成する。
func NewFrameLoop(session *Session, mailbox *FrameMailbox) *FrameLoop {
	return &FrameLoop{session: session, mailbox: mailbox}
}

// Session はセッションを返す。
func (l *FrameLoop) Session() *Session {
	return l.session
}

// WatchAvatar はアバター読込結果の受信を開始する。
func (l *FrameLoop) WatchAvatar(results <-chan LoadResult[*avatar.Avatar]) {
	l.avatarLoads = results
}

// WatchMotion はモーション読込結果の受信を開始する。
func (l *FrameLoop) WatchMotion(results <-chan LoadResult[*motion.Clip]) {
	l.motionLoads = results
}

// WatchLandmarks はランドマーク入力の終了通知の受信を開始する。
func (l *FrameLoop) WatchLandmarks(done <-chan error) {
	l.landmarkDone = done
}

// Pending は未完了の読込があるかを返す。
func (l *FrameLoop) Pending() bool {
	return l.avatarLoads != nil || l.motionLoads != nil
}

// Tick は受信済みの結果を反映してからセッションを dt 秒進める。
func (l *FrameLoop) Tick(dt float64) {
	l.drainAvatar()
	l.drainMotion()
	l.drainLandmarkDone()
	if l.mailbox != nil {
		if frame, ok := l.mailbox.TryTake(); ok {
			l.session.OnFaceResults(frame)
		}
	}
	l.session.Advance(dt)
}

func (l *FrameLoop) drainAvatar() {
	if l.avatarLoads == nil {
		return
	}
	select {
	case result, ok := <-l.avatarLoads:
		l.avatarLoads = nil
		if !ok {
			return
		}
		if result.Err != nil {
			l.session.ReportError(result.Err)
			return
		}
		l.session.InstallAvatar(result.Value)
	default:
	}
}

func (l *FrameLoop) drainMotion() {
	if l.motionLoads == nil {
		return
	}
	select {
	case result, ok := <-l.motionLoads:
		l.motionLoads = nil
		if !ok {
			return
		}
		if result.Err != nil {
			l.session.ReportError(result.Err)
			return
		}
		l.session.InstallMotion(result.Value)
	default:
	}
}

func (l *FrameLoop) drainLandmarkDone() {
	if l.landmarkDone == nil {
		return
	}
	select {
	case err, ok := <-l.landmarkDone:
		l.landmarkDone = nil
		if ok && err != nil {
			l.session.ReportError(err)
		}
	default:
	}
}
