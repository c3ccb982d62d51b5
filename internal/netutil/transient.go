package netutil

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/mmcdole/gofeed"
)

// IsTransient 判断错误是否为值得重试一次的临时传输错误
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	// 调用方主动取消不重试
	if errors.Is(err, context.Canceled) {
		return false
	}
	if isPermanent(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}

	// url.Error 也实现了 net.Error，只有超时才算临时错误
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"status code: 500", "status code: 502", "status code: 503", "status code: 504", "connection reset", "timeout", "deadline exceeded"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isPermanent 重试也不会成功的传输错误: 域名不存在、证书错误、协议不支持
func isPermanent(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}

	var (
		certErr      *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		unknownCA    x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidCert  x509.CertificateInvalidError
		systemRoots  x509.SystemRootsError
		insecureAlgo x509.InsecureAlgorithmError
	)
	if errors.As(err, &certErr) || errors.As(err, &recordErr) || errors.As(err, &unknownCA) ||
		errors.As(err, &hostnameErr) || errors.As(err, &invalidCert) || errors.As(err, &systemRoots) ||
		errors.As(err, &insecureAlgo) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unsupported protocol scheme") || strings.Contains(msg, "no such host")
}

// IsCredential 判断错误是否为凭证错误，此类错误不重试也不切换
func IsCredential(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"status code: 401", "status code: 403", "invalid api key", "api key not valid", "unauthorized", "permission denied"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsRateLimited 判断是否触发了 429 限流或配额耗尽
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota")
}
