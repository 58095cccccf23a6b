// 指示: miu200521358
// Package io_common は入出力アダプタ共通のエラー型を提供する。
package io_common

import (
	"errors"
	"fmt"
)

// 入出力エラーID一覧。
const (
	IoErrorIDFileNotFound       = "14101"
	IoErrorIDExtInvalid         = "14102"
	IoErrorIDParseFailed        = "14103"
	IoErrorIDFormatNotSupported = "14104"
	IoErrorIDSaveFailed         = "14201"
)

// IoError は入出力処理の失敗を表す。
type IoError struct {
	ID      string
	Path    string
	Message string
	Err     error
}

// Error はエラーメッセージを返す。
func (e *IoError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.ID, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.ID, msg)
}

// Unwrap は元エラーを返す。
func (e *IoError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewIoFileNotFound はファイル未検出エラーを生成する。
func NewIoFileNotFound(path string, err error) error {
	return &IoError{ID: IoErrorIDFileNotFound, Path: path, Message: "ファイルが見つかりません", Err: err}
}

// NewIoExtInvalid は拡張子不正エラーを生成する。
func NewIoExtInvalid(path string, err error) error {
	return &IoError{ID: IoErrorIDExtInvalid, Path: path, Message: "拡張子が未対応です", Err: err}
}

// NewIoParseFailed は解析失敗エラーを生成する。
func NewIoParseFailed(format string, err error, params ...any) error {
	return &IoError{ID: IoErrorIDParseFailed, Message: fmt.Sprintf(format, params...), Err: err}
}

// NewIoFormatNotSupported は形式未対応エラーを生成する。
func NewIoFormatNotSupported(format string, err error, params ...any) error {
	return &IoError{ID: IoErrorIDFormatNotSupported, Message: fmt.Sprintf(format, params...), Err: err}
}

// NewIoSaveFailed は保存失敗エラーを生成する。
func NewIoSaveFailed(path string, err error) error {
	return &IoError{ID: IoErrorIDSaveFailed, Path: path, Message: "保存に失敗しました", Err: err}
}

// ExtractErrorID はエラー連鎖から入出力エラーIDを取り出す。見つからない場合は空文字。
func ExtractErrorID(err error) string {
	var ioErr *IoError
	if errors.As(err, &ioErr) {
		return ioErr.ID
	}
	return ""
}
