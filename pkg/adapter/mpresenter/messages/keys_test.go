// 指示: miu200521358
package messages

import (
	"errors"
	"strings"
	"testing"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/avatar"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/minteractor"
)

func TestLoadErrorKindMessagesAreDefined(t *testing.T) {
	kinds := []minteractor.LoadErrorKind{
		minteractor.LOAD_ERROR_KIND_NOT_FOUND,
		minteractor.LOAD_ERROR_KIND_EXT_INVALID,
		minteractor.LOAD_ERROR_KIND_PARSE_FAILED,
		minteractor.LOAD_ERROR_KIND_FORMAT_NOT_SUPPORTED,
		minteractor.LOAD_ERROR_KIND_CANCELED,
		minteractor.LOAD_ERROR_KIND_UNKNOWN,
	}

	seen := map[string]struct{}{}
	for _, kind := range kinds {
		message := LoadErrorKindMessage(kind)
		if message == "" {
			t.Fatalf("message should not be empty: %s", kind)
		}
		if _, exists := seen[message]; exists {
			t.Fatalf("message should be unique: %s", message)
		}
		seen[message] = struct{}{}
	}
	if LoadErrorKindMessage("other") != MessageKindUnknown {
		t.Fatalf("unknown kind should fall back")
	}
}

func TestAvatarWarningMessages(t *testing.T) {
	for _, id := range []string{
		avatar.WarningHipsMissing,
		avatar.WarningHumanBoneNodeInvalid,
		avatar.WarningBlinkExpressionMissing,
		avatar.WarningDuplicateNodeName,
	} {
		if AvatarWarningMessage(id) == id {
			t.Fatalf("warning message missing: %s", id)
		}
	}
	if AvatarWarningMessage("custom") != "custom" {
		t.Fatalf("unregistered id should pass through")
	}
}

func TestBanner(t *testing.T) {
	if Banner(nil) != "" {
		t.Fatalf("nil error should produce empty banner")
	}

	loadErr := &minteractor.LoadError{
		Target: minteractor.LOAD_TARGET_AVATAR,
		Kind:   minteractor.LOAD_ERROR_KIND_NOT_FOUND,
		Path:   "/tmp/models/avatar.vrm",
		Err:    errors.New("missing"),
	}
	got := Banner(loadErr)
	want := MessageAvatarLoadFailed + ": " + MessageKindNotFound + " (avatar.vrm)"
	if got != want {
		t.Fatalf("banner mismatch: got=%s want=%s", got, want)
	}

	landmark := &minteractor.LandmarkError{Err: errors.New("address in use")}
	if got := Banner(landmark); !strings.HasPrefix(got, MessageLandmarkFailed) || !strings.Contains(got, "address in use") {
		t.Fatalf("unexpected landmark banner: %s", got)
	}
	if got := Banner(errors.New("plain")); got != "plain" {
		t.Fatalf("unexpected plain banner: %s", got)
	}
}
