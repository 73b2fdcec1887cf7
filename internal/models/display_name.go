package models

// DeletedUserPlaceholder - ne anlık isim ne de canlı kullanıcı varken gösterilir
const DeletedUserPlaceholder = "Silinmiş kullanıcı"

const deletedMarker = " (silinmiş)"

// DisplayName - fatura/versiyon kayıtlarındaki kullanıcı adını çözer.
// Öncelik yazma anında kopyalanan isimde; yoksa canlı kullanıcı ilişkisine düşülür.
// Kullanıcı soft-delete edilmişse (veya yalnızca anlık isim kaldıysa) isim
// "(silinmiş)" imiyle işaretlenir. Liste, detay ve versiyon uçları aynı
// fonksiyonu kullanır.
func DisplayName(snapshot string, live *User) string {
	name := snapshot
	if name == "" {
		if live == nil {
			return DeletedUserPlaceholder
		}
		name = live.Name
	}

	deleted := false
	if live != nil {
		deleted = live.DeletedAt.Valid
	} else if snapshot != "" {
		deleted = true
	}

	if deleted {
		return name + deletedMarker
	}
	return name
}
