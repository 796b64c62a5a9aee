package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/junho-l/pickup-system/models"
	"github.com/junho-l/pickup-system/realtime"
	"github.com/junho-l/pickup-system/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// roomStore — общее in-memory состояние комнат и строк участия.
// Мьютекс берёт только fakeTxRunner: в тестах конкурентны только операции,
// идущие через транзакцию, остальное выполняется из одной горутины.
type roomStore struct {
	mu                sync.Mutex
	rooms             map[int]*models.Room
	participants      map[int]*models.RoomParticipant
	nextRoomID        int
	nextParticipantID int
}

func newRoomStore() *roomStore {
	return &roomStore{
		rooms:             make(map[int]*models.Room),
		participants:      make(map[int]*models.RoomParticipant),
		nextRoomID:        1,
		nextParticipantID: 1,
	}
}

func (s *roomStore) addRoom(room models.Room) *models.Room {
	if room.ID == 0 {
		room.ID = s.nextRoomID
	}
	if room.ID >= s.nextRoomID {
		s.nextRoomID = room.ID + 1
	}
	stored := room
	s.rooms[stored.ID] = &stored
	return &stored
}

func (s *roomStore) addParticipant(p models.RoomParticipant) *models.RoomParticipant {
	if p.ID == 0 {
		p.ID = s.nextParticipantID
	}
	if p.ID >= s.nextParticipantID {
		s.nextParticipantID = p.ID + 1
	}
	stored := p
	s.participants[stored.ID] = &stored
	return &stored
}

type roomStoreSnapshot struct {
	rooms             map[int]models.Room
	participants      map[int]models.RoomParticipant
	nextRoomID        int
	nextParticipantID int
}

func (s *roomStore) snapshot() roomStoreSnapshot {
	snap := roomStoreSnapshot{
		rooms:             make(map[int]models.Room, len(s.rooms)),
		participants:      make(map[int]models.RoomParticipant, len(s.participants)),
		nextRoomID:        s.nextRoomID,
		nextParticipantID: s.nextParticipantID,
	}
	for id, room := range s.rooms {
		snap.rooms[id] = *room
	}
	for id, p := range s.participants {
		snap.participants[id] = *p
	}
	return snap
}

func (s *roomStore) restore(snap roomStoreSnapshot) {
	s.rooms = make(map[int]*models.Room, len(snap.rooms))
	for id, room := range snap.rooms {
		stored := room
		s.rooms[id] = &stored
	}
	s.participants = make(map[int]*models.RoomParticipant, len(snap.participants))
	for id, p := range snap.participants {
		stored := p
		s.participants[id] = &stored
	}
	s.nextRoomID = snap.nextRoomID
	s.nextParticipantID = snap.nextParticipantID
}

// fakeTxRunner сериализует транзакции мьютексом хранилища и откатывает
// изменения при ошибке, имитируя семантику настоящей транзакции.
type fakeTxRunner struct {
	store *roomStore
}

func (r *fakeTxRunner) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

type fakeRoomRepo struct {
	store *roomStore
}

func (r *fakeRoomRepo) Create(ctx context.Context, room *models.Room) error {
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	stored := r.store.addRoom(*room)
	room.ID = stored.ID
	return nil
}

func (r *fakeRoomRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Room, error) {
	room, ok := r.store.rooms[id]
	if !ok {
		return nil, repositories.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *fakeRoomRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Room, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeRoomRepo) GetSummaryByID(ctx context.Context, id int) (*models.RoomSummary, error) {
	room, err := r.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return &models.RoomSummary{Room: *room}, nil
}

func (r *fakeRoomRepo) ListSummaries(ctx context.Context, filter repositories.ListRoomsFilter) ([]models.RoomSummary, error) {
	var result []models.RoomSummary
	for _, room := range r.store.rooms {
		if filter.SportID != nil && room.SportID != *filter.SportID {
			continue
		}
		if filter.HostID != nil && room.HostID != *filter.HostID {
			continue
		}
		if filter.Status != nil && room.Status != *filter.Status {
			continue
		}
		if filter.PlayDateFrom != nil && room.PlayDate.Before(*filter.PlayDateFrom) {
			continue
		}
		if filter.TitleQuery != nil &&
			!strings.Contains(strings.ToLower(room.Title), strings.ToLower(*filter.TitleQuery)) {
			continue
		}
		result = append(result, models.RoomSummary{Room: *room})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PlayDate.Before(result[j].PlayDate)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *fakeRoomRepo) ListSummariesByIDs(ctx context.Context, ids []int) ([]models.RoomSummary, error) {
	var result []models.RoomSummary
	for _, id := range ids {
		if room, ok := r.store.rooms[id]; ok {
			result = append(result, models.RoomSummary{Room: *room})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PlayDate.Before(result[j].PlayDate)
	})
	return result, nil
}

func (r *fakeRoomRepo) IncrementParticipants(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	room, ok := r.store.rooms[id]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	if room.Status != models.RoomStatusRecruiting || room.CurrentParticipants >= room.MaxParticipants {
		return repositories.ErrRoomCapacityExceeded
	}
	room.CurrentParticipants++
	return nil
}

func (r *fakeRoomRepo) DecrementParticipants(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	room, ok := r.store.rooms[id]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	if room.CurrentParticipants > 1 {
		room.CurrentParticipants--
	}
	return nil
}

func (r *fakeRoomRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RoomStatus) error {
	room, ok := r.store.rooms[id]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	room.Status = status
	return nil
}

func (r *fakeRoomRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.store.rooms[id]; !ok {
		return repositories.ErrRoomNotFound
	}
	delete(r.store.rooms, id)
	return nil
}

func (r *fakeRoomRepo) IncrementViewCount(ctx context.Context, id int) error {
	room, ok := r.store.rooms[id]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	room.ViewCount++
	return nil
}

func (r *fakeRoomRepo) CountByHost(ctx context.Context, hostID int) (int, error) {
	count := 0
	for _, room := range r.store.rooms {
		if room.HostID == hostID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRoomRepo) ListExpired(ctx context.Context, exec repositories.SQLExecutor, now time.Time) ([]*models.Room, error) {
	var result []*models.Room
	for _, room := range r.store.rooms {
		if !room.PlayDate.Before(now) {
			continue
		}
		if room.Status != models.RoomStatusRecruiting && room.Status != models.RoomStatusClosed {
			continue
		}
		copied := *room
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeParticipantRepo struct {
	store *roomStore
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.RoomParticipant) error {
	if _, ok := r.store.rooms[p.RoomID]; !ok {
		return repositories.ErrParticipantRoomInvalid
	}
	for _, existing := range r.store.participants {
		if existing.RoomID == p.RoomID && existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
	}
	p.JoinedAt = time.Now()
	stored := r.store.addParticipant(*p)
	p.ID = stored.ID
	return nil
}

func (r *fakeParticipantRepo) DeleteByRoomAndUser(ctx context.Context, exec repositories.SQLExecutor, roomID, userID int, status models.ParticipantStatus) error {
	for id, p := range r.store.participants {
		if p.RoomID == roomID && p.UserID == userID && p.Status == status {
			delete(r.store.participants, id)
			return nil
		}
	}
	return repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) FindByRoomAndUser(ctx context.Context, roomID, userID int) (*models.RoomParticipant, error) {
	for _, p := range r.store.participants {
		if p.RoomID == roomID && p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByRoom(ctx context.Context, roomID int, statusFilter *models.ParticipantStatus, includeUser bool) ([]models.ParticipantWithUser, error) {
	var result []models.ParticipantWithUser
	for _, p := range r.store.participants {
		if p.RoomID != roomID {
			continue
		}
		if statusFilter != nil && p.Status != *statusFilter {
			continue
		}
		result = append(result, models.ParticipantWithUser{RoomParticipant: *p})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeParticipantRepo) ListRoomIDsByUser(ctx context.Context, userID int, status models.ParticipantStatus) ([]int, error) {
	var ids []int
	for _, p := range r.store.participants {
		if p.UserID == userID && p.Status == status {
			ids = append(ids, p.RoomID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeParticipantRepo) ListUserIDsByRoom(ctx context.Context, roomID int, status models.ParticipantStatus) ([]int, error) {
	var ids []int
	for _, p := range r.store.participants {
		if p.RoomID == roomID && p.Status == status {
			ids = append(ids, p.UserID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeParticipantRepo) CountByUser(ctx context.Context, userID int, status models.ParticipantStatus) (int, error) {
	count := 0
	for _, p := range r.store.participants {
		if p.UserID == userID && p.Status == status {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]*models.User), nextID: 1}
	for _, u := range users {
		stored := u
		if stored.ID >= repo.nextID {
			repo.nextID = stored.ID + 1
		}
		repo.users[stored.ID] = &stored
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[stored.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id int, input models.UpdateProfileInput) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	user.Nickname = input.Nickname
	user.Region = input.Region
	if input.AvatarURL != nil {
		user.AvatarURL = input.AvatarURL
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

type fakeSportRepo struct {
	sports map[int]*models.Sport
}

func newFakeSportRepo(sports ...models.Sport) *fakeSportRepo {
	repo := &fakeSportRepo{sports: make(map[int]*models.Sport)}
	for _, s := range sports {
		stored := s
		repo.sports[stored.ID] = &stored
	}
	return repo
}

func (r *fakeSportRepo) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	sport, ok := r.sports[id]
	if !ok {
		return nil, repositories.ErrSportNotFound
	}
	copied := *sport
	return &copied, nil
}

func (r *fakeSportRepo) ListActive(ctx context.Context) ([]models.Sport, error) {
	var result []models.Sport
	for _, sport := range r.sports {
		if sport.IsActive {
			result = append(result, *sport)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// fakeNotificationRepo защищён собственным мьютексом: уведомления пишутся
// после коммита, в том числе из конкурирующих горутин.
type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []models.Notification
	nextID        int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].UserID == userID {
			result = append(result, r.notifications[i])
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for i := range r.notifications {
		if r.notifications[i].UserID == userID && !r.notifications[i].IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) byType(typ models.NotificationType) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Notification
	for _, n := range r.notifications {
		if n.Type == typ {
			result = append(result, n)
		}
	}
	return result
}

// fakeNotifier записывает realtime-сигналы для проверок в тестах.
type fakeNotifier struct {
	mu                 sync.Mutex
	participantEvents  []realtime.EventType
	roomEvents         []realtime.EventType
	notifiedUserIDs    []int
	participantRoomIDs []int
}

func (n *fakeNotifier) PublishParticipantChange(roomID int, event realtime.EventType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.participantEvents = append(n.participantEvents, event)
	n.participantRoomIDs = append(n.participantRoomIDs, roomID)
}

func (n *fakeNotifier) PublishRoomChange(roomID int, event realtime.EventType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roomEvents = append(n.roomEvents, event)
}

func (n *fakeNotifier) PublishNotification(userID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifiedUserIDs = append(n.notifiedUserIDs, userID)
}
