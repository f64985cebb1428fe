package services

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"devfolio-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// CountSource supplies the content totals shown next to host metrics.
type CountSource interface {
	Counts(ctx context.Context) (models.ContentCounts, error)
}

// DashboardSample is what the admin dashboard socket receives.
type DashboardSample struct {
	models.MetricSample
	Counts models.ContentCounts `json:"counts"`
}

func CaptureMetrics(ctx context.Context, db *sqlx.DB, uploadsPath string) (models.MetricSample, error) {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	sample := models.MetricSample{
		ID:         uuid.NewString(),
		CapturedAt: time.Now().UTC(),
	}
	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.UsageWithContext(ctx, uploadsPath)
	if err != nil {
		diskStat, err = disk.UsageWithContext(ctx, "/")
	}
	if err == nil && diskStat != nil {
		sample.UploadsDiskTotal = int64(diskStat.Total)
		sample.UploadsDiskUsed = int64(diskStat.Used)
	}
	if proc != nil {
		if rss, _ := proc.MemoryInfoWithContext(ctx); rss != nil {
			sample.ProcessRSSBytes = int64(rss.RSS)
		}
		cpuPerc, _ := proc.CPUPercentWithContext(ctx)
		sample.ProcessCPULoad = cpuPerc / 100.0
	}
	if sysCPU, _ := cpu.PercentWithContext(ctx, 0, false); len(sysCPU) > 0 {
		sample.SystemCPULoad = sysCPU[0] / 100.0
	}

	_, err = db.ExecContext(ctx, db.Rebind(`
INSERT INTO server_metric_samples (
  id, captured_at, process_rss_bytes, system_memory_total_bytes, system_memory_used_bytes,
  uploads_disk_total_bytes, uploads_disk_used_bytes, process_cpu_load, system_cpu_load
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`), sample.ID, sample.CapturedAt, sample.ProcessRSSBytes, sample.SystemMemoryTotal, sample.SystemMemoryUsed,
		sample.UploadsDiskTotal, sample.UploadsDiskUsed, sample.ProcessCPULoad, sample.SystemCPULoad)
	if err != nil {
		return models.MetricSample{}, err
	}
	return sample, nil
}

// LatestMetrics returns up to limit samples, oldest first.
func LatestMetrics(ctx context.Context, db *sqlx.DB, limit int) ([]models.MetricSample, error) {
	rows := []models.MetricSample{}
	if err := db.SelectContext(ctx, &rows, db.Rebind(`
SELECT id, captured_at, process_rss_bytes, system_memory_total_bytes, system_memory_used_bytes,
       uploads_disk_total_bytes, uploads_disk_used_bytes, process_cpu_load, system_cpu_load
FROM server_metric_samples
ORDER BY captured_at DESC
LIMIT ?
`), limit); err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// PruneMetrics drops samples older than the retention window.
func PruneMetrics(ctx context.Context, db *sqlx.DB, retention time.Duration) (int64, error) {
	result, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM server_metric_samples WHERE captured_at < ?`), time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type MetricsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan DashboardSample
}

func NewMetricsHub() *MetricsHub {
	return &MetricsHub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan DashboardSample, 16),
	}
}

func (h *MetricsHub) Run(ctx context.Context) {
	for {
		select {
		case sample := <-h.ch:
			for _, conn := range h.snapshot() {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(sample); err != nil {
					slog.Debug("metrics socket write failed", "error", err)
					h.Remove(conn)
					_ = conn.Close()
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *MetricsHub) Broadcast(sample DashboardSample) {
	select {
	case h.ch <- sample:
	default:
	}
}

func (h *MetricsHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *MetricsHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *MetricsHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *MetricsHub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

// MetricsLoop samples the host every interval, stores the sample and fans it out.
func MetricsLoop(ctx context.Context, db *sqlx.DB, hub *MetricsHub, counts CountSource, uploadsPath string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastPrune := time.Now()
	for {
		select {
		case <-ticker.C:
			sample, err := CaptureMetrics(ctx, db, uploadsPath)
			if err != nil {
				slog.Error("metrics capture failed", "error", err)
				continue
			}
			dashboard := DashboardSample{MetricSample: sample}
			if counts != nil {
				if c, err := counts.Counts(ctx); err == nil {
					dashboard.Counts = c
				}
			}
			hub.Broadcast(dashboard)
			if time.Since(lastPrune) > time.Hour {
				lastPrune = time.Now()
				if _, err := PruneMetrics(ctx, db, 7*24*time.Hour); err != nil {
					slog.Error("metrics prune failed", "error", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
