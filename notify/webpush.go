package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VAPIDKey is the signing key pair for web push, generated on first
// startup and persisted in the database.
type VAPIDKey struct {
	Public  string
	Private string
}

// PushSubscription is one browser push endpoint.
type PushSubscription struct {
	gorm.Model

	Peer string

	SubscriptionID       string `gorm:"unique_index"`
	PushSubscriptionJSON string

	LastSuccess        *time.Time
	LastFailure        *time.Time
	LastFailureMessage string
}

// WebPush delivers scare notifications to subscribed browsers.
type WebPush struct {
	Key *VAPIDKey

	db         *gorm.DB
	subscriber string
}

// NewWebPush loads the VAPID key pair from the database, generating
// and storing one if this is the first run. The subscriber address
// identifies the sender to push services.
func NewWebPush(db *gorm.DB, subscriber string) (*WebPush, error) {
	if err := db.AutoMigrate(&VAPIDKey{}, &PushSubscription{}); err != nil {
		return nil, fmt.Errorf("failed to migrate push tables: %v", err)
	}

	p := &WebPush{
		Key:        &VAPIDKey{},
		db:         db,
		subscriber: subscriber,
	}
	if err := db.First(p.Key).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		priv, pub, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			return nil, err
		}
		p.Key.Private = priv
		p.Key.Public = pub
		if err := db.Create(p.Key).Error; err != nil {
			return nil, err
		}
		log.Infof("Web push VAPID keys generated")
	} else {
		log.Infof("Web push VAPID keys loaded from database")
	}
	return p, nil
}

func (p *WebPush) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/push/pubkey", p.handlePubkey)
	mux.HandleFunc("/push/subscriptions", p.handleSubscriptions)
	mux.HandleFunc("/push/subscribe", p.handleSubscribe)
	mux.HandleFunc("/push/unsubscribe", p.handleUnsubscribe)

	// Manually test web push notifications with a fake scare.
	mux.HandleFunc("/push/test", p.handleTest)
}

func (p *WebPush) handlePubkey(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, p.Key.Public)
}

func (p *WebPush) extractSub(w http.ResponseWriter, r *http.Request) *webpush.Subscription {
	if r.Method != "POST" {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return nil
	}
	sub := &webpush.Subscription{}
	if err := json.NewDecoder(r.Body).Decode(sub); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	return sub
}

func (p *WebPush) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	sub := p.extractSub(w, r)
	if sub == nil {
		return
	}
	jb, _ := json.Marshal(sub)
	ps := &PushSubscription{
		Peer:                 r.RemoteAddr,
		SubscriptionID:       sub.Endpoint,
		PushSubscriptionJSON: string(jb),
	}
	if err := p.db.Create(ps).Error; err != nil {
		log.Errorf("Failed to create push subscription: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Infof("Added push subscription for peer %v", ps.Peer)
}

func (p *WebPush) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	sub := p.extractSub(w, r)
	if sub == nil {
		return
	}
	ps := &PushSubscription{}
	if err := p.db.Where("subscription_id = ?", sub.Endpoint).First(ps).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "subscription not found", http.StatusNotFound)
		return
	}
	if err := p.db.Delete(ps).Error; err != nil {
		log.Errorf("Failed to delete push subscription: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Infof("Removed push subscription for peer %v (created at %v)", ps.Peer, ps.CreatedAt)
}

func (p *WebPush) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	var subs []*PushSubscription
	if err := p.db.Find(&subs).Error; err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, s := range subs {
		// Don't write back key material.
		s.PushSubscriptionJSON = "REDACTED"
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(subs); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (p *WebPush) handleTest(w http.ResponseWriter, r *http.Request) {
	n := &Notification{
		ID:         "test",
		TimeString: time.Now().Format("3:04 PM"),
		Blobs:      1,
		TotalArea:  1600,
		Clip:       "test cue",
	}
	if err := p.Notify(n); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	io.WriteString(w, "ok\n")
}

func (p *WebPush) notifyOne(ps *PushSubscription, payload []byte) error {
	var sub webpush.Subscription
	if err := json.NewDecoder(strings.NewReader(ps.PushSubscriptionJSON)).Decode(&sub); err != nil {
		return err
	}

	resp, err := webpush.SendNotification(payload, &sub, &webpush.Options{
		Subscriber:      p.subscriber,
		VAPIDPublicKey:  p.Key.Public,
		VAPIDPrivateKey: p.Key.Private,
		TTL:             120,
		Urgency:         webpush.UrgencyHigh,
		Topic:           "scarecam_event",
	})
	if resp != nil {
		defer resp.Body.Close()
	}
	if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone) {
		log.Infof("Push service reports status %v, deleting from database.", resp.Status)
		if err := p.db.Delete(ps).Error; err != nil {
			log.Errorf("Failed to remove push subscription from db: %v", err)
			return err
		}
		return nil
	}

	// Update the record with the results of this push.
	now := time.Now()
	if err != nil {
		log.Warnf("Web push to client failed: %v", err)
		ps.LastFailure = &now
		ps.LastFailureMessage = err.Error()
	} else {
		ps.LastSuccess = &now
	}

	return p.db.Save(ps).Error
}

// Notify implements Listener by pushing to every subscription.
func (p *WebPush) Notify(notification *Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	var subs []*PushSubscription
	if err := p.db.Find(&subs).Error; err != nil {
		return err
	}

	log.Infof("Sending web push notification to %d subscribers", len(subs))
	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		go func(ps *PushSubscription) {
			defer wg.Done()
			if err := p.notifyOne(ps, payload); err != nil {
				log.Errorf("Web push notify failed: %v", err)
			}
		}(s)
	}
	wg.Wait()
	log.Infof("Web push completed")
	return nil
}
