package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
)

var (
	dbURLRegex   = regexp.MustCompile(`^postgres(?:ql)?://(?:.*@)?(?P<addr>(?P<host>[^:/?]*)(?::(?P<port>\d+))?)(?:[/?].*)?$`)
	natsURLRegex = regexp.MustCompile(`^(?:nats|tls)://(?:.*@)?(?P<addr>(?P<host>[^:/?,]*)(?::(?P<port>\d+))?)`)
)

// WaitForTCP dials addr until it accepts a connection, timeout expires or ctx is done.
func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s could not be reached after %v", addr, timeout)
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// ExtractFromDBURL returns host:port of a postgres url, port defaults to 5432.
func ExtractFromDBURL(url string) string {
	return extractAddr(dbURLRegex, url, "5432")
}

// ExtractFromNatsURL returns host:port of the first server of a nats url,
// port defaults to 4222.
func ExtractFromNatsURL(url string) string {
	return extractAddr(natsURLRegex, url, "4222")
}

func extractAddr(re *regexp.Regexp, url, defaultPort string) string {
	param := resolveRegex(re, url)
	if len(param) == 0 || param["host"] == "" {
		return ""
	}
	if port := param["port"]; port != "" {
		return param["addr"]
	}
	return net.JoinHostPort(param["host"], defaultPort)
}

func resolveRegex(re *regexp.Regexp, url string) map[string]string {
	match := re.FindStringSubmatch(url)
	if match == nil {
		return nil
	}
	paramsMap := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i > 0 && name != "" {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
