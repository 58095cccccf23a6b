// 指示: miu200521358
package io_tracking

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/tracking"
)

const (
	// udpDatagramBytes は受信バッファの大きさ。
	udpDatagramBytes = 64 * 1024
	// udpReadTimeout は ctx 終了を確認する間隔。
	udpReadTimeout = 100 * time.Millisecond
)

// UDPSource は1データグラム1フレームのJSONを受信する入力元。
type UDPSource struct {
	conn *net.UDPConn
}

// NewUDPSource は address で待ち受けを開始する。
func NewUDPSource(address string) (*UDPSource, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("UDPアドレスの解決に失敗しました: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("UDP待ち受けに失敗しました: %w", err)
	}
	logTrackingInfo("ランドマークUDP待ち受け開始: addr=%s", conn.LocalAddr())
	return &UDPSource{conn: conn}, nil
}

// LocalAddr は待ち受けアドレスを返す。
func (s *UDPSource) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close は待ち受けを終了する。
func (s *UDPSource) Close() error {
	return s.conn.Close()
}

// Run は ctx が終了するまで受信し、フレーム毎に sink を呼ぶ。終了時に接続を閉じる。
func (s *UDPSource) Run(ctx context.Context, sink func(tracking.FaceFrame)) error {
	defer s.conn.Close()

	buffer := make([]byte, udpDatagramBytes)
	for {
		if err := ctx.Err(); err != nil {
			logTrackingDebug("ランドマークUDP待ち受け終了")
			return err
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(udpReadTimeout))
		n, from, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("UDP受信に失敗しました: %w", err)
		}
		frame, err := DecodeFrame(buffer[:n])
		if err != nil {
			logTrackingWarn("ランドマークデータグラムを読み飛ばします: from=%v err=%v", from, err)
			continue
		}
		sink(frame)
	}
}
