// internal/model/request.go
package model

// ChatRequest
// ------------------------------------------------------------
// POST /chatbot 요청 body. message 는 비어있지 않은 문자열이어야 한다.
// downstream chatbot 으로도 동일한 모양 그대로 전달된다.
type ChatRequest struct {
	Message string `json:"message"`
}

// UploadRequest
// ------------------------------------------------------------
// POST /upload 요청 body.
//   - Filename: blob 이름 (같은 이름이 있으면 덮어쓴다)
//   - File: base64 로 인코딩된 파일 내용
//
// 디코딩 후 한 번 쓰고 버린다. 어디에도 보관하지 않는다.
type UploadRequest struct {
	Filename string `json:"filename"`
	File     string `json:"file"`
}
