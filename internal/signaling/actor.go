package signaling

import "sync"

// peerState is the actor-private record of one room member: its public
// info and the outbound queue the connection handler drained. Never
// visible outside the actor goroutine.
type peerState struct {
	info PeerInfo
	out  *outboundQueue
}

// room exists iff non-empty; the actor deletes it the moment its last peer
// leaves.
type room struct {
	peers map[PeerId]*peerState
}

// directoryState is the actor's private mutable state: the room table and
// the reverse peer-to-room lookup, accessed from exactly one goroutine.
type directoryState struct {
	rooms     map[RoomCode]*room
	peerRooms map[PeerId]RoomCode
}

// action is a closure submitted to the room manager's single command
// queue. The actor goroutine runs each action to completion before picking
// up the next, which is what gives the directory its sequential-consistency
// guarantee without locks. This shape is the same "channel of closures"
// actor pattern used elsewhere in the ecosystem for exclusively-owned
// mutable state (e.g. a single goroutine owning an IP allocator table).
type action func(d *directoryState)

// RoomManager is the sole owner of the room directory. All reads and
// mutations happen inside its actor goroutine; RoomManager's exported
// methods only ever enqueue an action and wait for its result.
type RoomManager struct {
	mu      sync.RWMutex // guards stopped/actions against concurrent Stop
	actions chan action
	stopped bool
}

// NewRoomManager starts the actor goroutine and returns a handle to it.
func NewRoomManager() *RoomManager {
	rm := &RoomManager{
		actions: make(chan action, 256),
	}
	go rm.run()
	return rm
}

func (rm *RoomManager) run() {
	d := &directoryState{
		rooms:     make(map[RoomCode]*room),
		peerRooms: make(map[PeerId]RoomCode),
	}
	for act := range rm.actions {
		act(d)
	}
}

// Stop closes the command queue. In-flight actions already queued still
// run to completion before the actor goroutine exits.
func (rm *RoomManager) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.stopped {
		return
	}
	rm.stopped = true
	close(rm.actions)
}

// submit enqueues act, reporting ErrActorClosed instead of sending on a
// closed channel if the actor has already stopped. Holding the read lock
// across the send excludes a concurrent Stop from closing the channel
// mid-send.
func (rm *RoomManager) submit(act action) error {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	if rm.stopped {
		return ErrActorClosed
	}
	rm.actions <- act
	return nil
}

// Create generates a fresh RoomCode and PeerId, creates a one-peer Room,
// and updates both actor tables.
func (rm *RoomManager) Create(publicAddr *string, out *outboundQueue) (RoomCode, PeerId, error) {
	type result struct {
		code RoomCode
		peer PeerId
	}
	reply := make(chan result, 1)

	err := rm.submit(func(d *directoryState) {
		code := generateRoomCode()
		peerID := generatePeerID()

		d.rooms[code] = &room{
			peers: map[PeerId]*peerState{
				peerID: {info: PeerInfo{ID: peerID, PublicAddr: publicAddr}, out: out},
			},
		}
		d.peerRooms[peerID] = code

		reply <- result{code: code, peer: peerID}
	})
	if err != nil {
		return "", "", err
	}

	r := <-reply
	return r.code, r.peer, nil
}

// Join looks up code; on success it broadcasts a peer_joined notification
// to every existing member (enqueued before the joiner is inserted, so the
// joiner never sees itself) and replies with the joiner's id and a snapshot
// of the peers that existed immediately before insertion.
func (rm *RoomManager) Join(code RoomCode, publicAddr *string, out *outboundQueue) (PeerId, []PeerInfo, error) {
	type result struct {
		peer     PeerId
		existing []PeerInfo
		err      error
	}
	reply := make(chan result, 1)

	err := rm.submit(func(d *directoryState) {
		r, ok := d.rooms[code]
		if !ok {
			reply <- result{err: ErrRoomNotFound(code)}
			return
		}

		existing := make([]PeerInfo, 0, len(r.peers))
		for _, p := range r.peers {
			existing = append(existing, p.info)
		}

		peerID := generatePeerID()
		newInfo := PeerInfo{ID: peerID, PublicAddr: publicAddr}
		notification := newPeerJoinedMessage(newInfo)
		for _, p := range r.peers {
			p.out.Send(notification)
		}

		r.peers[peerID] = &peerState{info: newInfo, out: out}
		d.peerRooms[peerID] = code

		reply <- result{peer: peerID, existing: existing}
	})
	if err != nil {
		return "", nil, err
	}

	r := <-reply
	if r.err != nil {
		return "", nil, r.err
	}
	return r.peer, r.existing, nil
}

// Leave removes peerID from its room, deleting the room if that empties it.
// Fire-and-forget: a second Leave for the same peerID is a no-op. No
// notification is sent to the remaining peers.
func (rm *RoomManager) Leave(peerID PeerId) {
	_ = rm.submit(func(d *directoryState) {
		code, ok := d.peerRooms[peerID]
		if !ok {
			return
		}
		delete(d.peerRooms, peerID)

		if r, ok := d.rooms[code]; ok {
			delete(r.peers, peerID)
			if len(r.peers) == 0 {
				delete(d.rooms, code)
			}
		}
	})
}

// Stats is a read-only directory snapshot for the HTTP observability
// surface. It is served by the actor goroutine like every other command,
// so it never races with mutation.
type Stats struct {
	TotalRooms int
	TotalPeers int
	RoomSizes  map[string]int
}

func (rm *RoomManager) Stats() Stats {
	reply := make(chan Stats, 1)
	err := rm.submit(func(d *directoryState) {
		s := Stats{TotalRooms: len(d.rooms), RoomSizes: make(map[string]int, len(d.rooms))}
		for code, r := range d.rooms {
			s.RoomSizes[string(code)] = len(r.peers)
			s.TotalPeers += len(r.peers)
		}
		reply <- s
	})
	if err != nil {
		return Stats{RoomSizes: map[string]int{}}
	}
	return <-reply
}
