// Command mock-provider is a fake backend used for local development
// and integration tests of the router kernel's fail-over path. It
// understands the three wire shapes internal/provider's adapters speak
// (OpenAI-style chat completions, Anthropic-style messages, and a
// local/Ollama-style generate endpoint) and can be told, via query
// string, to simulate any failure mode a real backend might produce.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	port := flag.String("port", "8001", "port to listen on")
	flag.Parse()

	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/v1/chat/completions", handleOpenAIStyle)
	r.POST("/v1/messages", handleAnthropicStyle)
	r.POST("/api/generate", handleLocalStyle)

	r.GET("/health", func(c *gin.Context) {
		if c.Query("fail") == "unhealthy" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	log.Infof("mock provider starting on :%s", *port)
	if err := r.Run(":" + *port); err != nil {
		log.WithError(err).Fatal("mock provider exited")
	}
}

// applyFailureSimulation inspects the delay/fail query params and
// either short-circuits the response (returning true) or sleeps for
// the requested delay before letting the caller produce a normal
// response.
func applyFailureSimulation(c *gin.Context) (handled bool) {
	if delayStr := c.Query("delay"); delayStr != "" {
		if ms, err := strconv.Atoi(delayStr); err == nil && ms > 0 {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	fail := c.Query("fail")
	if fail == "" {
		return false
	}

	log.Warnf("simulating failure: %s", fail)
	switch fail {
	case "429":
		c.JSON(http.StatusTooManyRequests, gin.H{"error": gin.H{"message": "rate limit exceeded", "type": "rate_limit_error"}})
	case "500":
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "internal server error", "type": "server_error"}})
	case "502":
		c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "bad gateway", "type": "server_error"}})
	case "503":
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "service temporarily unavailable", "type": "server_error"}})
	case "timeout":
		log.Info("simulating timeout (sleeping 60s)")
		time.Sleep(60 * time.Second)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": gin.H{"message": "gateway timeout", "type": "timeout_error"}})
	default:
		if code, err := strconv.Atoi(fail); err == nil && code >= 400 && code < 600 {
			c.JSON(code, gin.H{"error": gin.H{"message": fmt.Sprintf("simulated error %d", code), "type": "simulated_error"}})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "unknown failure type", "type": "server_error"}})
		}
	}
	return true
}

func handleOpenAIStyle(c *gin.Context) {
	if applyFailureSimulation(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      fmt.Sprintf("mock-%d", rand.Intn(100000)),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "mock-model",
		"choices": []gin.H{
			{
				"index":         0,
				"message":       gin.H{"role": "assistant", "content": "mock response from OpenAI-style backend"},
				"finish_reason": "stop",
			},
		},
		"usage": gin.H{"prompt_tokens": 10, "completion_tokens": 15, "total_tokens": 25},
	})
}

func handleAnthropicStyle(c *gin.Context) {
	if applyFailureSimulation(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      fmt.Sprintf("mock-%d", rand.Intn(100000)),
		"type":    "message",
		"role":    "assistant",
		"model":   "mock-model",
		"content": []gin.H{{"type": "text", "text": "mock response from Anthropic-style backend"}},
	})
}

func handleLocalStyle(c *gin.Context) {
	if applyFailureSimulation(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"model":    "mock-local-model",
		"response": "mock response from local fallback backend",
		"done":     true,
	})
}
