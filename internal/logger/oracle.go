package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// 中文说明：
// Oracle 请求/响应的原文落盘与主日志分离，便于离线排查推荐解析问题。

var (
	oracleMu          sync.Mutex
	oracleLog         *log.Logger
	oracleDumpPayload bool
)

func SetOracleWriter(w io.Writer) {
	oracleMu.Lock()
	defer oracleMu.Unlock()
	if w == nil {
		oracleLog = nil
		return
	}
	oracleLog = log.New(w, "", log.LstdFlags)
}

func EnableOraclePayloadDump(enabled bool) {
	oracleMu.Lock()
	oracleDumpPayload = enabled
	oracleMu.Unlock()
}

type oracleSection struct {
	Title string
	Body  string
}

func logOracle(kind, symbol string, sections []oracleSection) {
	oracleMu.Lock()
	l := oracleLog
	oracleMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[ORACLE]")
	if kind != "" {
		b.WriteString("[")
		b.WriteString(kind)
		b.WriteString("]")
	}
	if symbol != "" {
		b.WriteString("[")
		b.WriteString(symbol)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

func LogOracleRequest(symbol, instructions, context, payload string) {
	sections := []oracleSection{
		{Title: "INSTRUCTIONS", Body: instructions},
		{Title: "CONTEXT", Body: context},
	}
	oracleMu.Lock()
	dump := oracleDumpPayload
	oracleMu.Unlock()
	if dump && strings.TrimSpace(payload) != "" {
		sections = append(sections, oracleSection{Title: "PAYLOAD", Body: payload})
	}
	logOracle("request", symbol, sections)
}

func LogOracleResponse(symbol, raw string) {
	logOracle("response", symbol, []oracleSection{{Title: "RAW", Body: raw}})
}
