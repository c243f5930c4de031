package classifier

import (
	"time"

	"github.com/suPer8Hu/supportbot/internal/intent"
)

var seedTexts = map[intent.Label][]string{
	intent.Reservation: {
		"MOCA 어떻게 예약해요?",
		"차량 예약하고 싶어요",
		"예약 변경은 어떻게 하나요?",
		"내일 오전에 차를 빌릴 수 있나요?",
		"예약 취소하고 싶어요",
		"how do I book a car",
		"I want to make a reservation for tomorrow",
		"can I change my booking time",
	},
	intent.Pricing: {
		"주행 요금은 1km당 얼마예요?",
		"대여 요금이 얼마인가요?",
		"보험료는 따로 내야 하나요?",
		"할인 쿠폰 있나요?",
		"결제는 언제 되나요?",
		"how much does it cost per hour",
		"what is the price per km",
		"is insurance included in the fee",
	},
	intent.Usage: {
		"차 문은 어떻게 열어요?",
		"반납은 어디에 하나요?",
		"주유는 어떻게 하나요?",
		"앱으로 차 키를 어떻게 써요?",
		"처음 이용하는데 방법을 알려주세요",
		"how do I unlock the car",
		"where should I return the vehicle",
		"how do I refuel the car",
	},
	intent.Troubleshooting: {
		"사고가 났어요 어떻게 해야하죠?",
		"차 시동이 안 걸려요",
		"앱이 자꾸 꺼져요",
		"차 문이 안 열려요",
		"타이어가 펑크났어요",
		"the car won't start",
		"I had an accident what should I do",
		"the app keeps crashing",
	},
	intent.Account: {
		"비밀번호를 잊어버렸어요",
		"회원 탈퇴하고 싶어요",
		"면허 정보를 등록하고 싶어요",
		"카카오 로그인이 안돼요",
		"결제 카드를 변경하고 싶어요",
		"I forgot my password",
		"how do I delete my account",
		"update my driver license",
	},
	intent.Greeting: {
		"안녕하세요",
		"안녕",
		"반가워요",
		"처음 뵙겠습니다",
		"hello",
		"hi there",
		"good morning",
	},
	intent.Thanks: {
		"감사합니다",
		"고마워요",
		"도움이 됐어요 감사해요",
		"정말 고맙습니다",
		"thank you",
		"thanks a lot",
		"thanks for the help",
	},
	intent.Other: {
		"오늘 날씨 어때요?",
		"점심 뭐 먹을까",
		"노래 추천해줘",
		"what is the meaning of life",
		"tell me a joke",
		"who won the game yesterday",
	},
}

// SeedExamples returns the curated starting corpus.
func SeedExamples() []TrainingExample {
	now := time.Now()
	var out []TrainingExample
	for _, l := range intent.All {
		for _, t := range seedTexts[l] {
			out = append(out, TrainingExample{Text: t, Intent: l, Confidence: 1.0, Timestamp: now})
		}
	}
	return out
}
