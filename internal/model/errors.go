// internal/model/errors.go
package model

import (
	"errors"
	"net/http"
)

// 게이트웨이 에러 분류.
// 실제 원인은 fmt.Errorf("...: %w", ErrXxx) 로 감싸서 전달하고,
// HTTP 상태코드 매핑은 StatusOf 한 곳에서만 한다.
var (
	ErrValidation       = errors.New("validation error")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrBodyTooLarge     = errors.New("request body too large")
	ErrDownstream       = errors.New("downstream error")
	ErrStorage          = errors.New("storage error")
)

// StatusOf 는 err 에 대응하는 HTTP 상태코드를 돌려준다. 모르는 에러는 500.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// PublicError
//
// 클라이언트에 그대로 보여줘도 되는 메시지를 가진 에러.
// Kind 는 위의 분류 중 하나이며 errors.Is 로 확인할 수 있다.
type PublicError struct {
	Msg  string
	Kind error
}

func (e *PublicError) Error() string { return e.Msg }
func (e *PublicError) Unwrap() error { return e.Kind }

// Public 은 kind 로 분류되는 공개 메시지 에러를 만든다.
func Public(kind error, msg string) error {
	return &PublicError{Msg: msg, Kind: kind}
}

// PublicMessage 는 응답 body 에 실을 메시지를 돌려준다.
// PublicError 가 아니면 내부 사정을 숨기고 MsgInternalError.
func PublicMessage(err error) string {
	var pe *PublicError
	if errors.As(err, &pe) {
		return pe.Msg
	}
	return MsgInternalError
}
