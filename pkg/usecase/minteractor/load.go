// 指示: miu200521358
package minteractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

// LoadErrorKind は読込失敗の分類。
type LoadErrorKind string

const (
	LOAD_ERROR_KIND_NOT_FOUND            LoadErrorKind = "not_found"
	LOAD_ERROR_KIND_EXT_INVALID          LoadErrorKind = "ext_invalid"
	LOAD_ERROR_KIND_PARSE_FAILED         LoadErrorKind = "parse_failed"
	LOAD_ERROR_KIND_FORMAT_NOT_SUPPORTED LoadErrorKind = "format_not_supported"
	LOAD_ERROR_KIND_CANCELED             LoadErrorKind = "canceled"
	LOAD_ERROR_KIND_UNKNOWN              LoadErrorKind = "unknown"
)

// LoadTarget は読込対象の種別。
type LoadTarget string

const (
	LOAD_TARGET_AVATAR LoadTarget = "avatar"
	LOAD_TARGET_MOTION LoadTarget = "motion"
)

// LoadError は読込失敗を表す。
type LoadError struct {
	Target LoadTarget
	Kind   LoadErrorKind
	Path   string
	Err    error
}

// Error はエラーメッセージを返す。
func (e *LoadError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s読込失敗(%s): %s: %v", e.Target, e.Kind, e.Path, e.Err)
}

// Unwrap は元エラーを返す。
func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// newLoadError は入出力エラーIDから分類を決めて LoadError を生成する。
func newLoadError(target LoadTarget, path string, err error) *LoadError {
	kind := LOAD_ERROR_KIND_UNKNOWN
	switch io_common.ExtractErrorID(err) {
	case io_common.IoErrorIDFileNotFound:
		kind = LOAD_ERROR_KIND_NOT_FOUND
	case io_common.IoErrorIDExtInvalid:
		kind = LOAD_ERROR_KIND_EXT_INVALID
	case io_common.IoErrorIDParseFailed:
		kind = LOAD_ERROR_KIND_PARSE_FAILED
	case io_common.IoErrorIDFormatNotSupported:
		kind = LOAD_ERROR_KIND_FORMAT_NOT_SUPPORTED
	default:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = LOAD_ERROR_KIND_CANCELED
		}
	}
	return &LoadError{Target: target, Kind: kind, Path: path, Err: err}
}

// LoadResult は非同期読込の結果。Err が nil の場合のみ Value が有効。
type LoadResult[T any] struct {
	Path  string
	Value T
	Err   error
}

// LoadAvatar はアバターを読み込む。
func (uc *RetargetUsecase) LoadAvatar(path string) (*avatar.Avatar, error) {
	if uc.avatarReader == nil {
		return nil, fmt.Errorf("アバター読み込みリポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("アバターパスが未指定です")
	}
	model, err := uc.avatarReader.Load(path)
	if err != nil {
		return nil, newLoadError(LOAD_TARGET_AVATAR, path, err)
	}
	return model, nil
}

// LoadMotion はモーションを読み込む。
func (uc *RetargetUsecase) LoadMotion(path string) (*motion.Clip, error) {
	if uc.motionReader == nil {
		return nil, fmt.Errorf("モーション読み込みリポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("モーションパスが未指定です")
	}
	clip, err := uc.motionReader.Load(path)
	if err != nil {
		return nil, newLoadError(LOAD_TARGET_MOTION, path, err)
	}
	return clip, nil
}

// LoadAvatarAsync はアバターを別goroutineで読み込み、結果を1件だけ送るチャネルを返す。
func (uc *RetargetUsecase) LoadAvatarAsync(ctx context.Context, path string) <-chan LoadResult[*avatar.Avatar] {
	return loadAsync(ctx, LOAD_TARGET_AVATAR, path, uc.LoadAvatar)
}

// LoadMotionAsync はモーションを別goroutineで読み込み、結果を1件だけ送るチャネルを返す。
func (uc *RetargetUsecase) LoadMotionAsync(ctx context.Context, path string) <-chan LoadResult[*motion.Clip] {
	return loadAsync(ctx, LOAD_TARGET_MOTION, path, uc.LoadMotion)
}

// loadAsync は読込関数を別goroutineで実行する。
// 結果チャネルはバッファ1で、受信側が居なくてもgoroutineは終了する。
func loadAsync[T any](ctx context.Context, target LoadTarget, path string, load func(string) (T, error)) <-chan LoadResult[T] {
	results := make(chan LoadResult[T], 1)
	go func() {
		defer close(results)
		if err := ctx.Err(); err != nil {
			results <- LoadResult[T]{Path: path, Err: newLoadError(target, path, err)}
			return
		}
		value, err := recoverLoad(target, path, load)
		if err != nil {
			logRetargetError("読込に失敗しました: target=%s path=%s err=%v", target, path, err)
		}
		results <- LoadResult[T]{Path: path, Value: value, Err: err}
	}()
	return results
}

// recoverLoad は読込関数の panic を LoadError へ変換する。
func recoverLoad[T any](target LoadTarget, path string, load func(string) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			err = newLoadError(target, path, fmt.Errorf("読込中に異常終了しました: %v", r))
		}
	}()
	return load(path)
}
