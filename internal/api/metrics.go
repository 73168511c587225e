package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics собирает метрики процесса сервера мира
type ServerMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// ProcessStats - снимок ресурсов процесса
type ProcessStats struct {
	Uptime      string  `json:"uptime"`
	MemoryMB    float64 `json:"memory_mb"`
	HeapMB      float64 `json:"heap_mb"`
	RSSMB       float64 `json:"rss_mb,omitempty"`
	CPUPercent  float64 `json:"cpu_percent"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int     `json:"goroutines"`
	ServerTime  int64   `json:"server_time"`
	LogicalCPUs int     `json:"logical_cpus"`
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	sm := &ServerMetrics{StartTime: time.Now()}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		sm.proc = proc
	}
	return sm
}

// GetUptime возвращает время работы сервера
func (sm *ServerMetrics) GetUptime() string {
	uptime := time.Since(sm.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// Snapshot возвращает текущие ресурсы процесса.
// Ошибки gopsutil не критичны: соответствующие поля остаются нулевыми.
func (sm *ServerMetrics) Snapshot() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:      sm.GetUptime(),
		MemoryMB:    float64(m.Alloc) / 1024 / 1024,
		HeapMB:      float64(m.HeapAlloc) / 1024 / 1024,
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
		ServerTime:  time.Now().Unix(),
		LogicalCPUs: runtime.NumCPU(),
	}

	if sm.proc != nil {
		// Процент CPU процесса с момента его запуска
		if cpu, err := sm.proc.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		}
		if mem, err := sm.proc.MemoryInfo(); err == nil && mem != nil {
			stats.RSSMB = float64(mem.RSS) / 1024 / 1024
		}
	}
	return stats
}
