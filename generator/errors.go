package generator

import (
	"errors"
	"fmt"
)

// RequestError reports a transport or upstream API failure.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ShapeError reports a response that parsed but did not match the expected structure.
type ShapeError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: unexpected response shape: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: unexpected response shape: %s", e.Op, e.Reason)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// ValidationError reports a missing or blank user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

var (
	// ErrBusy is returned when a session already runs an operation.
	ErrBusy = errors.New("another generation is in progress")
	// ErrFreeformDisabled is returned when no freeform generator is configured.
	ErrFreeformDisabled = errors.New("freeform generation is not configured")
)

// UserMessage converts any pipeline error into the single string shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		switch ve.Field {
		case "api_key":
			return "API 키를 먼저 설정해주세요."
		case "topic":
			return "글 주제를 입력해주세요."
		case "category":
			return "카테고리를 선택해주세요."
		case "tone":
			return "글의 톤을 선택해주세요."
		}
		return ve.Message
	}
	if errors.Is(err, ErrBusy) {
		return "AI가 작업 중입니다. 잠시 후 다시 시도해주세요."
	}
	if errors.Is(err, ErrFreeformDisabled) {
		return "자유 형식 생성이 설정되지 않았습니다."
	}
	var re *RequestError
	if errors.As(err, &re) && re.Op == opSuggest {
		return "주제 추천 중 오류가 발생했습니다. API 키를 확인해주세요."
	}
	var se *ShapeError
	if errors.As(err, &se) || re != nil {
		return fmt.Sprintf("오류 발생: %v. API 키가 유효한지 확인해주세요.", err)
	}
	return "블로그 글 생성에 실패했습니다."
}
