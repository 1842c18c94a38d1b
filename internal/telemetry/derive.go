package telemetry

import "math"

// Derive 由相邻两次原始快照计算瞬时利用率指标
// prev 为 nil 时（会话的首次采样）CPU 使用率按 0 处理，而不是伪造一个差值
func Derive(prev *RawSample, cur RawSample) ContainerStats {
	stats := ContainerStats{
		ContainerID: cur.ContainerID,
		CPUPercent:  cpuPercent(prev, cur),
		MemoryUsage: cur.MemoryUsage,
		MemoryLimit: cur.MemoryLimit,
		PIDs:        cur.PIDs,
		Timestamp:   cur.ReadAt.UnixMilli(),
	}

	// 内存使用率不做 100% 截断，cgroup 短暂超过软限制是合法状态
	if cur.MemoryLimit > 0 {
		stats.MemoryPercent = round2(float64(cur.MemoryUsage) / float64(cur.MemoryLimit) * 100)
	}

	// 网络与块设备只累加当前快照，保持累计语义
	for _, nw := range cur.Networks {
		stats.NetworkRx += nw.RxBytes
		stats.NetworkTx += nw.TxBytes
	}
	for _, entry := range cur.Blkio {
		switch entry.Op {
		case "read", "Read":
			stats.BlockRead += entry.Bytes
		case "write", "Write":
			stats.BlockWrite += entry.Bytes
		}
	}

	return stats
}

// cpuPercent 计算 CPU 使用率
// 两个计数器都是单调累计值，这里不对采样间隔做归一化，
// 结果即两次调用实际间隔内的平均占用
func cpuPercent(prev *RawSample, cur RawSample) float64 {
	if prev == nil {
		return 0
	}

	cpuDelta := float64(cur.CPUTotal) - float64(prev.CPUTotal)
	systemDelta := float64(cur.SystemCPU) - float64(prev.SystemCPU)
	if cpuDelta <= 0 || systemDelta <= 0 {
		return 0
	}

	cores := float64(cur.OnlineCPUs)
	if cores == 0 {
		cores = 1
	}

	return round2(cpuDelta / systemDelta * cores * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
