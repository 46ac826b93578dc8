package bancheck

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var store *Store

	BeforeEach(func() {
		store = NewStore()
		store.Put(&TaskRecord{ID: "t1", Status: StatusProcessing, Results: []ResultRow{}})
	})

	Describe("Get", func() {
		It("returns nil for unknown ids", func() {
			Expect(store.Get("nope")).To(BeNil())
		})

		It("returns an isolated snapshot", func() {
			snapshot := store.Get("t1")
			snapshot.Status = StatusFailed
			snapshot.Results = append(snapshot.Results, ResultRow{SteamID: "x"})

			Expect(store.Get("t1").Status).To(Equal(StatusProcessing))
			Expect(store.Get("t1").Results).To(BeEmpty())
		})
	})

	Describe("Update", func() {
		It("mutates individual fields", func() {
			store.Update("t1", func(r *TaskRecord) { r.Message = "halfway" })
			Expect(store.Get("t1").Message).To(Equal("halfway"))
		})

		It("ignores unknown ids", func() {
			Expect(func() {
				store.Update("nope", func(r *TaskRecord) { r.Message = "x" })
			}).NotTo(Panic())
		})
	})

	Describe("Delete", func() {
		It("removes the record", func() {
			store.Delete("t1")
			Expect(store.Get("t1")).To(BeNil())
		})
	})
})

var _ = Describe("TaskRecord", func() {
	Describe("setProgress", func() {
		It("never lowers progress", func() {
			r := &TaskRecord{Progress: 40}
			r.setProgress(35)
			Expect(r.Progress).To(Equal(40.0))
			r.setProgress(55.55)
			Expect(r.Progress).To(Equal(55.55))
		})
	})
})

var _ = Describe("round2", func() {
	It("rounds to two decimals", func() {
		Expect(round2(33.333333)).To(Equal(33.33))
		Expect(round2(66.666666)).To(Equal(66.67))
	})
})
