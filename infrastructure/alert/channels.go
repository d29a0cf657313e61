package alert

import (
	"fmt"

	"market-sim-go/infrastructure/logger"
)

// LoggerChannel 把告警写进结构化日志
type LoggerChannel struct {
	log  *logger.Logger
	name string
}

// NewLoggerChannel 创建日志告警通道
func NewLoggerChannel(name string, log *logger.Logger) *LoggerChannel {
	return &LoggerChannel{log: log, name: name}
}

// Send 发送告警到日志
func (c *LoggerChannel) Send(alert Alert) error {
	fields := map[string]interface{}{
		"level":   alert.Level,
		"message": alert.Message,
	}
	for k, v := range alert.Fields {
		fields[k] = v
	}
	switch alert.Level {
	case "ERROR", "CRITICAL":
		c.log.LogError(fmt.Errorf("%s", alert.Message), fields)
	default:
		c.log.LogRisk("alert", fields)
	}
	return nil
}

// Name 返回通道名称
func (c *LoggerChannel) Name() string {
	return c.name
}

// MockChannel 模拟告警通道（用于测试）
type MockChannel struct {
	name      string
	alerts    []Alert
	shouldErr bool
}

// NewMockChannel 创建模拟告警通道
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name, alerts: make([]Alert, 0)}
}

// Send 记录告警（用于测试验证）
func (c *MockChannel) Send(alert Alert) error {
	if c.shouldErr {
		return fmt.Errorf("mock error")
	}
	c.alerts = append(c.alerts, alert)
	return nil
}

// Name 返回通道名称
func (c *MockChannel) Name() string {
	return c.name
}

// Alerts 获取所有接收到的告警
func (c *MockChannel) Alerts() []Alert {
	return c.alerts
}

// SetShouldError 设置是否返回错误
func (c *MockChannel) SetShouldError(shouldErr bool) {
	c.shouldErr = shouldErr
}

// Count 返回接收到的告警数量
func (c *MockChannel) Count() int {
	return len(c.alerts)
}
