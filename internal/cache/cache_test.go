package cache

import (
	"testing"
	"time"
)

// Redis bağlantısı olmadan tüm yardımcılar sessizce no-op davranmalı;
// cache servisin çalışması için zorunlu değildir.
func TestDisabledCacheIsNoop(t *testing.T) {
	if rdb != nil {
		t.Skip("test redis bağlantısı olmadan çalışır")
	}

	var dest map[string]string
	hit, err := GetObject(DashboardStatsKey, &dest)
	if err != nil {
		t.Errorf("GetObject hata döndürdü: %v", err)
	}
	if hit {
		t.Error("bağlantısız cache hit döndürdü")
	}

	if err := SetObject(DashboardStatsKey, map[string]string{"a": "b"}, time.Minute); err != nil {
		t.Errorf("SetObject hata döndürdü: %v", err)
	}
	if err := Remove(DashboardStatsKey); err != nil {
		t.Errorf("Remove hata döndürdü: %v", err)
	}

	InvalidateDashboard()
}
