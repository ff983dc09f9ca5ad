package ids

import "testing"

func TestJobIdSize(t *testing.T) {
	if JobIdSize != 4 {
		t.Fatalf("JobIdSize = %d, want 4", JobIdSize)
	}
}

func TestActorIdSize(t *testing.T) {
	if ActorIdSize != 16 {
		t.Fatalf("ActorIdSize = %d, want 16", ActorIdSize)
	}
}

func TestTaskIdSize(t *testing.T) {
	if TaskIdSize != 24 {
		t.Fatalf("TaskIdSize = %d, want 24", TaskIdSize)
	}
}

func TestObjectIdSize(t *testing.T) {
	if ObjectIdSize != 28 {
		t.Fatalf("ObjectIdSize = %d, want 28", ObjectIdSize)
	}
}

func TestJobIdFromInt(t *testing.T) {
	j := JobIdFromInt(12345)
	if j.ToInt() != 12345 {
		t.Fatalf("ToInt() = %d, want 12345", j.ToInt())
	}
}

func TestJobIdNil(t *testing.T) {
	if !NilJobId().IsNil() {
		t.Fatal("NilJobId() should be nil")
	}
	if JobIdFromInt(1).IsNil() {
		t.Fatal("JobIdFromInt(1) should not be nil")
	}
}

func TestJobIdHexRoundTrip(t *testing.T) {
	j := JobIdFromInt(0x12345678)
	hex := j.ToHex()
	if hex != "12345678" {
		t.Fatalf("ToHex() = %q, want %q", hex, "12345678")
	}
	parsed, err := JobIdFromHex(hex)
	if err != nil {
		t.Fatalf("JobIdFromHex: %v", err)
	}
	if !j.Equal(parsed) {
		t.Fatal("round-trip mismatch")
	}
}

func TestActorIdJobId(t *testing.T) {
	job := JobIdFromInt(42)
	actor := NilFromJob(job)
	if !actor.JobId().Equal(job) {
		t.Fatal("ActorId.JobId() mismatch")
	}
}

func TestTaskIdActorCreation(t *testing.T) {
	job := JobIdFromInt(1)
	actor := NilFromJob(job)
	task := ForActorCreationTask(actor)

	if !task.IsForActorCreationTask() {
		t.Fatal("expected actor creation task")
	}
	if !task.ActorId().Equal(actor) {
		t.Fatal("TaskId.ActorId() mismatch")
	}
}

func TestObjectIdFromIndex(t *testing.T) {
	job := JobIdFromInt(1)
	task, err := FromRandomTaskId(job)
	if err != nil {
		t.Fatalf("FromRandomTaskId: %v", err)
	}
	obj := FromIndex(task, 5)

	if obj.ObjectIndex() != 5 {
		t.Fatalf("ObjectIndex() = %d, want 5", obj.ObjectIndex())
	}
	if !obj.TaskId().Equal(task) {
		t.Fatal("ObjectId.TaskId() mismatch")
	}
}

func TestObjectIdBinaryRoundTrip(t *testing.T) {
	original, err := FromRandomObjectId()
	if err != nil {
		t.Fatalf("FromRandomObjectId: %v", err)
	}
	restored, err := ObjectIdFromBinary(original.ToBinary())
	if err != nil {
		t.Fatalf("ObjectIdFromBinary: %v", err)
	}
	if !original.Equal(restored) {
		t.Fatal("binary round-trip mismatch")
	}
}

func TestObjectIdHexRoundTrip(t *testing.T) {
	original, err := FromRandomObjectId()
	if err != nil {
		t.Fatalf("FromRandomObjectId: %v", err)
	}
	restored, err := ObjectIdFromHex(original.ToHex())
	if err != nil {
		t.Fatalf("ObjectIdFromHex: %v", err)
	}
	if !original.Equal(restored) {
		t.Fatal("hex round-trip mismatch")
	}
}

func TestInvalidBinaryLength(t *testing.T) {
	short := make([]byte, 10)
	if _, err := JobIdFromBinary(short); err == nil {
		t.Fatal("expected error for short JobId binary")
	}
	if _, err := ObjectIdFromBinary(short); err == nil {
		t.Fatal("expected error for short ObjectId binary")
	}
}

func TestMurmurHashDeterminism(t *testing.T) {
	data := []byte("test data")
	h1 := murmurHash64A(data, 0)
	h2 := murmurHash64A(data, 0)
	if h1 != h2 {
		t.Fatal("hash not deterministic")
	}

	other := []byte("other data")
	h3 := murmurHash64A(other, 0)
	if h1 == h3 {
		t.Fatal("different data produced same hash")
	}

	h4 := murmurHash64A(data, 1)
	if h1 == h4 {
		t.Fatal("different seeds produced same hash")
	}
}

func TestComputeHashEqualForEqualBytes(t *testing.T) {
	a := JobIdFromInt(99)
	b, err := JobIdFromBinary(a.ToBinary())
	if err != nil {
		t.Fatalf("JobIdFromBinary: %v", err)
	}
	if a.ComputeHash() != b.ComputeHash() {
		t.Fatal("equal ids must hash equal")
	}
}

func TestNilObjectId(t *testing.T) {
	if !NilObjectId().IsNil() {
		t.Fatal("NilObjectId() should be nil")
	}
}
