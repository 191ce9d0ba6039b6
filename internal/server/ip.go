package server

import (
	"net"
	"net/http"
	"strings"
)

// ------------------------------------------------------------
// 클라이언트 IP (접근 로그용)
//
// 게이트웨이는 Function 호스트 / API Gateway / Front Door 뒤에서 돈다.
// 이 경우 RemoteAddr 는 내부 프록시 주소이고 실제 사용자 IP 는 헤더에 있다.
// 반대로 RemoteAddr 가 public 이면 프록시 없이 직접 붙은 것이므로
// 헤더는 클라이언트가 마음대로 넣은 값일 수 있어 보지 않는다.
// ------------------------------------------------------------

// forwardedHeaders 는 RemoteAddr 가 내부 주소일 때 확인하는 헤더 순서.
//   - X-Azure-ClientIP: Front Door 가 직접 채우는 단일 값
//   - X-Forwarded-For : 여러 hop 이 이어 붙인 목록
var forwardedHeaders = []string{"X-Azure-ClientIP", "X-Forwarded-For"}

// internalIP 는 loopback / private / link-local 주소면 true.
func internalIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// remoteHost 는 RemoteAddr 에서 포트를 뗀 IP. 파싱 실패 시 nil.
func remoteHost(addr string) net.IP {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return net.ParseIP(strings.TrimSpace(host))
}

// firstPublic 은 콤마로 이어진 헤더 값에서 처음 나오는 public IP 를 찾는다.
func firstPublic(v string) net.IP {
	for _, part := range strings.Split(v, ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil && !internalIP(ip) {
			return ip
		}
	}
	return nil
}

// clientIP
//
//  1. RemoteAddr 가 public → 그대로
//  2. 내부 주소 → X-Azure-ClientIP, X-Forwarded-For 순으로 첫 public IP
//  3. 헤더에 쓸 만한 값이 없으면 내부 RemoteAddr 라도 남긴다
func clientIP(r *http.Request) string {
	remote := remoteHost(r.RemoteAddr)
	if remote != nil && !internalIP(remote) {
		return remote.String()
	}

	for _, h := range forwardedHeaders {
		if ip := firstPublic(r.Header.Get(h)); ip != nil {
			return ip.String()
		}
	}

	if remote != nil {
		return remote.String()
	}
	return ""
}
