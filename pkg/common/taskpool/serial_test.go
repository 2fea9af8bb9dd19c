// Copyright 2023 ColStream Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taskpool

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSerialExecutor(t *testing.T) {
	convey.Convey("serial executor", t, func() {
		e := NewSerialExecutor()

		convey.Convey("runs tasks in submission order", func() {
			var order []int
			for i := 0; i < 5; i++ {
				i := i
				convey.So(e.Submit(func() {
					order = append(order, i)
				}, StopToken{}, nil), convey.ShouldBeNil)
			}
			e.MarkFinished()
			e.RunLoop()
			convey.So(order, convey.ShouldResemble, []int{0, 1, 2, 3, 4})
		})

		convey.Convey("honors stop tokens", func() {
			src := NewStopSource()
			src.RequestStop()
			ran, stopped := false, false
			convey.So(e.Submit(func() { ran = true }, src.Token(), func() { stopped = true }), convey.ShouldBeNil)
			e.MarkFinished()
			e.RunLoop()
			convey.So(ran, convey.ShouldBeFalse)
			convey.So(stopped, convey.ShouldBeTrue)
		})

		convey.Convey("rejects submissions once finished", func() {
			e.MarkFinished()
			e.RunLoop()
			convey.So(e.Submit(func() {}, StopToken{}, nil), convey.ShouldNotBeNil)
		})

		convey.Convey("reports unit capacity", func() {
			convey.So(e.Capacity(), convey.ShouldEqual, 1)
		})

		convey.Convey("accepts submissions from another goroutine", func() {
			done := make(chan struct{})
			go func() {
				defer close(done)
				_ = e.Submit(func() {}, StopToken{}, nil)
				e.MarkFinished()
			}()
			e.RunLoop()
			<-done
		})
	})
}
