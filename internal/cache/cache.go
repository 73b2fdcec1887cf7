package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	rdb *redis.Client
	ctx = context.Background()
)

// DashboardStatsKey - /dashboard/stats yanıtının cache anahtarı.
// Joker karakterli anahtar aramaları desteklenmediğinden sabit anahtarlar
// kullanılır ve fatura/iade mutasyonlarında açıkça silinir.
const DashboardStatsKey = "dashboard:stats"

// Connect - redis'e bağlanır; adres boşsa veya bağlantı kurulamazsa cache
// devre dışı kalır, tüm yardımcılar no-op davranır
func Connect(addr string) {
	if addr == "" {
		log.Println("REDIS_ADDRESS tanımlı değil, cache devre dışı")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis bağlantısı kurulamadı (%s): %v; cache devre dışı", addr, err)
		return
	}

	rdb = client
	log.Printf("Redis bağlantısı başarılı: %s", addr)
}

func GetObject(key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func SetObject(key string, obj any, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, exp).Err()
}

func Remove(keys ...string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// InvalidateDashboard - fatura ve iade mutasyonlarından sonra çağrılır
func InvalidateDashboard() {
	if err := Remove(DashboardStatsKey); err != nil {
		log.Printf("Dashboard cache temizlenemedi: %v", err)
	}
}
