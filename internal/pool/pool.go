package pool

import (
	"bytes"
	"sync"
)

// ---------------------------------------------------------------
// Pool 구성 목적
//
// /upload 요청은 base64 파일이 통째로 body 에 실려 오므로
// 요청마다 큰 버퍼를 새로 잡으면 GC 부담이 크다.
// body 읽기용 버퍼를 재사용한다.
// ---------------------------------------------------------------

var (
	// BodyPool:
	//   - 요청 body 를 임시 저장하는 버퍼
	//   - 초기 용량 64KB (chatbot 메시지는 여기에 수용됨)
	//   - 너무 커진 버퍼는 caller(maxCap 조건)에서 재사용하지 않음
	BodyPool = sync.Pool{
		New: func() any {
			return bytes.NewBuffer(make([]byte, 0, 64*1024))
		},
	}
)

// GetBody 는 비어있는 버퍼를 꺼낸다.
func GetBody() *bytes.Buffer {
	buf := BodyPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBody:
//   - BodyPool에 buf를 반환할지 결정.
//   - maxCap 보다 크면 버려서 GC로.
//   - 대용량 업로드 뒤에 메모리를 계속 보유하지 않도록 한다.
func PutBody(buf *bytes.Buffer, maxCap int64) {
	if int64(buf.Cap()) <= maxCap {
		buf.Reset()
		BodyPool.Put(buf)
	}
}
